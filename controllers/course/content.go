package courseController

import (
	"errors"

	"tutorhub/apperr"
	"tutorhub/middleware"
	courseModels "tutorhub/models/course"
	courseValidator "tutorhub/validators/course"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	errTopicNotFound    = apperr.NotFound("Topic not found!")
	errSubtopicNotFound = apperr.NotFound("Subtopic not found!")
	errMaterialNotFound = apperr.NotFound("Material not found!")
	errTestNotFound     = apperr.NotFound("Test not found!")
)

// loadNode fetches a content row and maps a miss to notFound.
func (ctl *Controller) loadNode(c *fiber.Ctx, dest interface{}, id uint, notFound error) error {
	err := ctl.DB.WithContext(c.UserContext()).First(dest, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	if err != nil {
		return apperr.Internal("Failed to fetch course content!", err)
	}
	return nil
}

func (ctl *Controller) editableTopic(c *fiber.Ctx, topicId uint) (*courseModels.Topic, error) {
	var topic courseModels.Topic
	if err := ctl.loadNode(c, &topic, topicId, errTopicNotFound); err != nil {
		return nil, err
	}
	if _, err := ctl.editableCourse(c, topic.CourseID); err != nil {
		return nil, err
	}
	return &topic, nil
}

func (ctl *Controller) editableSubtopic(c *fiber.Ctx, subtopicId uint) (*courseModels.Subtopic, error) {
	var subtopic courseModels.Subtopic
	if err := ctl.loadNode(c, &subtopic, subtopicId, errSubtopicNotFound); err != nil {
		return nil, err
	}
	if _, err := ctl.editableTopic(c, subtopic.TopicID); err != nil {
		return nil, err
	}
	return &subtopic, nil
}

func (ctl *Controller) save(c *fiber.Ctx, status int, message string, row interface{}) error {
	if err := ctl.DB.WithContext(c.UserContext()).Save(row).Error; err != nil {
		return middleware.HandleError(c, apperr.Internal("Failed to save course content!", err))
	}
	return middleware.JsonResponse(c, status, true, message, row)
}

func (ctl *Controller) remove(c *fiber.Ctx, message string, fn func(tx *gorm.DB) error) error {
	if err := ctl.DB.WithContext(c.UserContext()).Transaction(fn); err != nil {
		return middleware.HandleError(c, apperr.Internal("Failed to delete course content!", err))
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, message, nil)
}

func (ctl *Controller) CreateTopic(c *fiber.Ctx) error {
	courseId, _ := c.Locals("id").(uint)
	reqData, ok := c.Locals("validatedTopic").(*courseValidator.TopicBody)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	if _, err := ctl.editableCourse(c, courseId); err != nil {
		return middleware.HandleError(c, err)
	}

	return ctl.save(c, fiber.StatusCreated, "Topic created successfully!", &courseModels.Topic{
		CourseID:    courseId,
		Title:       reqData.Title,
		Description: reqData.Description,
		OrderIndex:  reqData.OrderIndex,
	})
}

func (ctl *Controller) UpdateTopic(c *fiber.Ctx) error {
	topicId, _ := c.Locals("id").(uint)
	reqData, ok := c.Locals("validatedTopic").(*courseValidator.TopicBody)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	topic, err := ctl.editableTopic(c, topicId)
	if err != nil {
		return middleware.HandleError(c, err)
	}

	topic.Title = reqData.Title
	topic.Description = reqData.Description
	topic.OrderIndex = reqData.OrderIndex
	return ctl.save(c, fiber.StatusOK, "Topic updated successfully!", topic)
}

func (ctl *Controller) DeleteTopic(c *fiber.Ctx) error {
	topicId, _ := c.Locals("id").(uint)
	topic, err := ctl.editableTopic(c, topicId)
	if err != nil {
		return middleware.HandleError(c, err)
	}

	return ctl.remove(c, "Topic deleted successfully!", func(tx *gorm.DB) error {
		subtopics := tx.Model(&courseModels.Subtopic{}).Select("id").Where("topic_id = ?", topic.ID)
		if err := tx.Where("subtopic_id IN (?)", subtopics).Delete(&courseModels.Material{}).Error; err != nil {
			return err
		}
		if err := tx.Where("topic_id = ?", topic.ID).Delete(&courseModels.Subtopic{}).Error; err != nil {
			return err
		}
		if err := tx.Where("topic_id = ?", topic.ID).Delete(&courseModels.Test{}).Error; err != nil {
			return err
		}
		return tx.Delete(topic).Error
	})
}

func (ctl *Controller) CreateSubtopic(c *fiber.Ctx) error {
	topicId, _ := c.Locals("id").(uint)
	reqData, ok := c.Locals("validatedSubtopic").(*courseValidator.SubtopicBody)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	if _, err := ctl.editableTopic(c, topicId); err != nil {
		return middleware.HandleError(c, err)
	}

	return ctl.save(c, fiber.StatusCreated, "Subtopic created successfully!", &courseModels.Subtopic{
		TopicID:    topicId,
		Title:      reqData.Title,
		Content:    reqData.Content,
		OrderIndex: reqData.OrderIndex,
	})
}

func (ctl *Controller) UpdateSubtopic(c *fiber.Ctx) error {
	subtopicId, _ := c.Locals("id").(uint)
	reqData, ok := c.Locals("validatedSubtopic").(*courseValidator.SubtopicBody)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	subtopic, err := ctl.editableSubtopic(c, subtopicId)
	if err != nil {
		return middleware.HandleError(c, err)
	}

	subtopic.Title = reqData.Title
	subtopic.Content = reqData.Content
	subtopic.OrderIndex = reqData.OrderIndex
	return ctl.save(c, fiber.StatusOK, "Subtopic updated successfully!", subtopic)
}

func (ctl *Controller) DeleteSubtopic(c *fiber.Ctx) error {
	subtopicId, _ := c.Locals("id").(uint)
	subtopic, err := ctl.editableSubtopic(c, subtopicId)
	if err != nil {
		return middleware.HandleError(c, err)
	}

	return ctl.remove(c, "Subtopic deleted successfully!", func(tx *gorm.DB) error {
		if err := tx.Where("subtopic_id = ?", subtopic.ID).Delete(&courseModels.Material{}).Error; err != nil {
			return err
		}
		return tx.Delete(subtopic).Error
	})
}

func (ctl *Controller) CreateMaterial(c *fiber.Ctx) error {
	subtopicId, _ := c.Locals("id").(uint)
	reqData, ok := c.Locals("validatedMaterial").(*courseValidator.MaterialBody)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	if _, err := ctl.editableSubtopic(c, subtopicId); err != nil {
		return middleware.HandleError(c, err)
	}

	return ctl.save(c, fiber.StatusCreated, "Material created successfully!", &courseModels.Material{
		SubtopicID: subtopicId,
		Title:      reqData.Title,
		Type:       reqData.Type,
		URL:        reqData.URL,
		Body:       reqData.Body,
		OrderIndex: reqData.OrderIndex,
	})
}

func (ctl *Controller) UpdateMaterial(c *fiber.Ctx) error {
	materialId, _ := c.Locals("id").(uint)
	reqData, ok := c.Locals("validatedMaterial").(*courseValidator.MaterialBody)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	var material courseModels.Material
	if err := ctl.loadNode(c, &material, materialId, errMaterialNotFound); err != nil {
		return middleware.HandleError(c, err)
	}
	if _, err := ctl.editableSubtopic(c, material.SubtopicID); err != nil {
		return middleware.HandleError(c, err)
	}

	material.Title = reqData.Title
	material.Type = reqData.Type
	material.URL = reqData.URL
	material.Body = reqData.Body
	material.OrderIndex = reqData.OrderIndex
	return ctl.save(c, fiber.StatusOK, "Material updated successfully!", &material)
}

func (ctl *Controller) DeleteMaterial(c *fiber.Ctx) error {
	materialId, _ := c.Locals("id").(uint)

	var material courseModels.Material
	if err := ctl.loadNode(c, &material, materialId, errMaterialNotFound); err != nil {
		return middleware.HandleError(c, err)
	}
	if _, err := ctl.editableSubtopic(c, material.SubtopicID); err != nil {
		return middleware.HandleError(c, err)
	}

	return ctl.remove(c, "Material deleted successfully!", func(tx *gorm.DB) error {
		return tx.Delete(&material).Error
	})
}

func questions(body []courseValidator.QuestionBody) datatypes.JSONType[[]courseModels.TestQuestion] {
	out := make([]courseModels.TestQuestion, 0, len(body))
	for _, q := range body {
		out = append(out, courseModels.TestQuestion{Prompt: q.Prompt, Options: q.Options, Answer: q.Answer})
	}
	return datatypes.NewJSONType(out)
}

func (ctl *Controller) CreateTest(c *fiber.Ctx) error {
	topicId, _ := c.Locals("id").(uint)
	reqData, ok := c.Locals("validatedTest").(*courseValidator.TestBody)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	if _, err := ctl.editableTopic(c, topicId); err != nil {
		return middleware.HandleError(c, err)
	}

	return ctl.save(c, fiber.StatusCreated, "Test created successfully!", &courseModels.Test{
		TopicID:   topicId,
		Title:     reqData.Title,
		PassScore: reqData.PassScore,
		Questions: questions(reqData.Questions),
	})
}

func (ctl *Controller) UpdateTest(c *fiber.Ctx) error {
	testId, _ := c.Locals("id").(uint)
	reqData, ok := c.Locals("validatedTest").(*courseValidator.TestBody)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	var test courseModels.Test
	if err := ctl.loadNode(c, &test, testId, errTestNotFound); err != nil {
		return middleware.HandleError(c, err)
	}
	if _, err := ctl.editableTopic(c, test.TopicID); err != nil {
		return middleware.HandleError(c, err)
	}

	test.Title = reqData.Title
	test.PassScore = reqData.PassScore
	test.Questions = questions(reqData.Questions)
	return ctl.save(c, fiber.StatusOK, "Test updated successfully!", &test)
}

func (ctl *Controller) DeleteTest(c *fiber.Ctx) error {
	testId, _ := c.Locals("id").(uint)

	var test courseModels.Test
	if err := ctl.loadNode(c, &test, testId, errTestNotFound); err != nil {
		return middleware.HandleError(c, err)
	}
	if _, err := ctl.editableTopic(c, test.TopicID); err != nil {
		return middleware.HandleError(c, err)
	}

	return ctl.remove(c, "Test deleted successfully!", func(tx *gorm.DB) error {
		return tx.Delete(&test).Error
	})
}

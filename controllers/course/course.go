package courseController

import (
	"errors"
	"strings"

	"tutorhub/apperr"
	"tutorhub/middleware"
	"tutorhub/models"
	courseModels "tutorhub/models/course"
	enrollmentModels "tutorhub/models/enrollment"
	"tutorhub/utils"
	courseValidator "tutorhub/validators/course"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var (
	errCourseNotFound = apperr.NotFound("Course not found!")
	errNotOwner       = apperr.Forbidden("You can only manage your own courses!")
	errHasEnrollments = apperr.Conflict("Course has active enrollments!")
	errInvalidTutor   = apperr.Validation("Tutor must be a TUTOR account!")
)

type Controller struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *Controller {
	return &Controller{DB: db}
}

// editableCourse loads a course the current user may change: its creator or any staff member.
func (ctl *Controller) editableCourse(c *fiber.Ctx, courseId uint) (*courseModels.Course, error) {
	user, _ := middleware.CurrentUser(c)

	var course courseModels.Course
	if err := ctl.DB.WithContext(c.UserContext()).First(&course, courseId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errCourseNotFound
		}
		return nil, apperr.Internal("Failed to fetch course!", err)
	}
	if course.CreatedByID != user.ID && !user.HasRole(models.StaffRoles...) {
		return nil, errNotOwner
	}
	return &course, nil
}

func contentTree(db *gorm.DB) *gorm.DB {
	ordered := func(db *gorm.DB) *gorm.DB { return db.Order("order_index, id") }
	return db.
		Preload("Topics", ordered).
		Preload("Topics.Subtopics", ordered).
		Preload("Topics.Subtopics.Materials", ordered).
		Preload("Topics.Tests", func(db *gorm.DB) *gorm.DB { return db.Order("id") })
}

func searchCourses(db *gorm.DB, search string) *gorm.DB {
	if search = strings.TrimSpace(search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		db = db.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	return db
}

// ListPublished is the public catalog: ACTIVE courses only.
func (ctl *Controller) ListPublished(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedList").(*courseValidator.CatalogQuery)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	page, limit := reqData.Normalized()

	query := searchCourses(ctl.DB.WithContext(c.UserContext()).Model(&courseModels.Course{}), reqData.Search).
		Where("status = ?", courseModels.StatusActive)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return middleware.HandleError(c, apperr.Internal("Failed to count courses!", err))
	}

	var courses []courseModels.Course
	if err := query.Order("created_at DESC, id DESC").Offset((page - 1) * limit).Limit(limit).Find(&courses).Error; err != nil {
		return middleware.HandleError(c, apperr.Internal("Failed to fetch courses!", err))
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully!", fiber.Map{
		"courses":    courses,
		"pagination": utils.Paginate(total, page, limit),
	})
}

// GetPublished returns an ACTIVE course with its full content tree.
func (ctl *Controller) GetPublished(c *fiber.Ctx) error {
	courseId, _ := c.Locals("id").(uint)

	var course courseModels.Course
	err := contentTree(ctl.DB.WithContext(c.UserContext())).
		Where("status = ?", courseModels.StatusActive).
		First(&course, courseId).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return middleware.HandleError(c, errCourseNotFound)
	}
	if err != nil {
		return middleware.HandleError(c, apperr.Internal("Failed to fetch course!", err))
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course fetched successfully!", course)
}

// ListManaged lists every course for staff and only their own courses for tutors, drafts included.
func (ctl *Controller) ListManaged(c *fiber.Ctx) error {
	user, _ := middleware.CurrentUser(c)
	reqData, ok := c.Locals("validatedList").(*courseValidator.CatalogQuery)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	page, limit := reqData.Normalized()

	query := searchCourses(ctl.DB.WithContext(c.UserContext()).Model(&courseModels.Course{}), reqData.Search)
	if !user.HasRole(models.StaffRoles...) {
		query = query.Where("created_by_id = ?", user.ID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return middleware.HandleError(c, apperr.Internal("Failed to count courses!", err))
	}

	var courses []courseModels.Course
	if err := query.Order("created_at DESC, id DESC").Offset((page - 1) * limit).Limit(limit).Find(&courses).Error; err != nil {
		return middleware.HandleError(c, apperr.Internal("Failed to fetch courses!", err))
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully!", fiber.Map{
		"courses":    courses,
		"pagination": utils.Paginate(total, page, limit),
	})
}

func (ctl *Controller) GetManaged(c *fiber.Ctx) error {
	courseId, _ := c.Locals("id").(uint)
	if _, err := ctl.editableCourse(c, courseId); err != nil {
		return middleware.HandleError(c, err)
	}

	var course courseModels.Course
	if err := contentTree(ctl.DB.WithContext(c.UserContext())).First(&course, courseId).Error; err != nil {
		return middleware.HandleError(c, apperr.Internal("Failed to fetch course!", err))
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course fetched successfully!", course)
}

// CreateCourse starts every course as a DRAFT. Staff may create on behalf of a tutor.
func (ctl *Controller) CreateCourse(c *fiber.Ctx) error {
	user, _ := middleware.CurrentUser(c)
	reqData, ok := c.Locals("validatedCourse").(*courseValidator.CreateCourseBody)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	creatorId := user.ID
	if reqData.TutorID != 0 && reqData.TutorID != user.ID {
		if !user.HasRole(models.StaffRoles...) {
			return middleware.HandleError(c, apperr.Forbidden("Only staff can create courses for other tutors!"))
		}
		var tutor models.User
		if err := ctl.DB.WithContext(c.UserContext()).First(&tutor, reqData.TutorID).Error; err != nil || tutor.Role != models.RoleTutor {
			return middleware.HandleError(c, errInvalidTutor)
		}
		creatorId = tutor.ID
	}

	course := courseModels.Course{
		Title:       reqData.Title,
		Description: reqData.Description,
		Price:       reqData.Price,
		MaxStudents: reqData.MaxStudents,
		Status:      courseModels.StatusDraft,
		CreatedByID: creatorId,
	}
	if err := ctl.DB.WithContext(c.UserContext()).Create(&course).Error; err != nil {
		return middleware.HandleError(c, apperr.Internal("Failed to create course!", err))
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Course created successfully!", course)
}

func (ctl *Controller) UpdateCourse(c *fiber.Ctx) error {
	courseId, _ := c.Locals("id").(uint)
	reqData, ok := c.Locals("validatedCourse").(*courseValidator.UpdateCourseBody)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	course, err := ctl.editableCourse(c, courseId)
	if err != nil {
		return middleware.HandleError(c, err)
	}

	updates := map[string]interface{}{}
	if reqData.Title != nil {
		updates["title"] = strings.TrimSpace(*reqData.Title)
	}
	if reqData.Description != nil {
		updates["description"] = *reqData.Description
	}
	if reqData.Price != nil {
		updates["price"] = *reqData.Price
	}
	if reqData.MaxStudents != nil {
		updates["max_students"] = *reqData.MaxStudents
	}
	if err := ctl.DB.WithContext(c.UserContext()).Model(course).Updates(updates).Error; err != nil {
		return middleware.HandleError(c, apperr.Internal("Failed to update course!", err))
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course updated successfully!", course)
}

// PublishCourse moves a course between DRAFT and ACTIVE.
func (ctl *Controller) PublishCourse(c *fiber.Ctx) error {
	courseId, _ := c.Locals("id").(uint)
	reqData, ok := c.Locals("validatedPublish").(*courseValidator.PublishBody)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	course, err := ctl.editableCourse(c, courseId)
	if err != nil {
		return middleware.HandleError(c, err)
	}
	if err := ctl.DB.WithContext(c.UserContext()).Model(course).Update("status", reqData.Status).Error; err != nil {
		return middleware.HandleError(c, apperr.Internal("Failed to update course status!", err))
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course status updated successfully!", course)
}

// DeleteCourse removes the course with its content tree. Courses with ACTIVE enrollments stay.
func (ctl *Controller) DeleteCourse(c *fiber.Ctx) error {
	courseId, _ := c.Locals("id").(uint)
	course, err := ctl.editableCourse(c, courseId)
	if err != nil {
		return middleware.HandleError(c, err)
	}

	err = ctl.DB.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		var active int64
		if err := tx.Model(&enrollmentModels.CourseEnrollment{}).
			Where("course_id = ? AND status = ?", course.ID, enrollmentModels.StatusActive).
			Count(&active).Error; err != nil {
			return apperr.Internal("Failed to check enrollments!", err)
		}
		if active > 0 {
			return errHasEnrollments
		}

		topics := tx.Model(&courseModels.Topic{}).Select("id").Where("course_id = ?", course.ID)
		subtopics := tx.Model(&courseModels.Subtopic{}).Select("id").Where("topic_id IN (?)", topics)
		steps := []func() error{
			func() error { return tx.Where("subtopic_id IN (?)", subtopics).Delete(&courseModels.Material{}).Error },
			func() error { return tx.Where("topic_id IN (?)", topics).Delete(&courseModels.Subtopic{}).Error },
			func() error { return tx.Where("topic_id IN (?)", topics).Delete(&courseModels.Test{}).Error },
			func() error { return tx.Where("course_id = ?", course.ID).Delete(&courseModels.Topic{}).Error },
			func() error { return tx.Delete(course).Error },
		}
		for _, step := range steps {
			if err := step(); err != nil {
				return apperr.Internal("Failed to delete course!", err)
			}
		}
		return nil
	})
	if err != nil {
		return middleware.HandleError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course deleted successfully!", nil)
}

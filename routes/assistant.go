package routes

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"learnhub-platform/internal/logger"
	"learnhub-platform/internal/queue"
	"learnhub-platform/services"
	"learnhub-platform/utils"
)

type askRequest struct {
	Question string `json:"question" binding:"required"`
	LessonID string `json:"lesson_id"`
}

// SetupAssistantRoutes wires the two calls the platform's HTTP layer
// consumes: asking a question and triggering lesson ingestion.
// Authentication is applied by the surrounding application's middleware
// stack before these handlers run.
func SetupAssistantRoutes(router *gin.Engine, store services.Store, assistant *services.AssistantService, asynqClient *asynq.Client) {
	courses := router.Group("/courses")

	courses.POST("/:course_id/ask", func(c *gin.Context) {
		courseID, err := primitive.ObjectIDFromHex(c.Param("course_id"))
		if err != nil {
			utils.RespondWithBadRequest(c, "Invalid course ID format", nil)
			return
		}

		var req askRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		scope := services.Scope{CourseID: courseID}
		if req.LessonID != "" {
			lessonID, err := primitive.ObjectIDFromHex(req.LessonID)
			if err != nil {
				utils.RespondWithBadRequest(c, "Invalid lesson ID format", nil)
				return
			}
			scope.LessonID = lessonID
		}

		ctx, cancel := utils.WithAnswerTimeout(c.Request.Context())
		defer cancel()

		started := time.Now()
		answer, err := assistant.Ask(ctx, req.Question, scope)
		if err != nil {
			if errors.Is(err, services.ErrNotFound) {
				utils.RespondWithNotFound(c, "Course not found")
				return
			}
			logger.Error("Assistant request failed", "course_id", courseID.Hex(), "error", err)
			utils.RespondWithInternalError(c, "Failed to answer question", nil)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"answer":     answer.Text,
			"sources":    answer.Sources,
			"latency_ms": int(time.Since(started).Milliseconds()),
		})
	})

	courses.POST("/:course_id/ingest", func(c *gin.Context) {
		courseID := c.Param("course_id")
		objID, err := primitive.ObjectIDFromHex(courseID)
		if err != nil {
			utils.RespondWithBadRequest(c, "Invalid course ID format", nil)
			return
		}

		ctx, cancel := utils.WithTimeout(c.Request.Context())
		defer cancel()

		if _, err := store.GetCourseContext(ctx, objID); err != nil {
			if errors.Is(err, services.ErrNotFound) {
				utils.RespondWithNotFound(c, "Course not found")
				return
			}
			utils.RespondWithInternalError(c, "Failed to load course", nil)
			return
		}

		task, err := queue.NewCourseIngestTask(courseID)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to create ingestion task", nil)
			return
		}
		info, err := asynqClient.EnqueueContext(ctx, task)
		if err != nil {
			logger.Error("Failed to enqueue course ingestion", "course_id", courseID, "error", err)
			utils.RespondWithInternalError(c, "Failed to enqueue ingestion", nil)
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"course_id": courseID,
			"task_id":   info.ID,
			"queue":     info.Queue,
		})
	})

	lessons := router.Group("/lessons")

	// Lesson-scoped ask: the question is answered from this lesson's
	// chunks only. The lesson's course still provides the prompt context.
	lessons.POST("/:lesson_id/ask", func(c *gin.Context) {
		lessonID, err := primitive.ObjectIDFromHex(c.Param("lesson_id"))
		if err != nil {
			utils.RespondWithBadRequest(c, "Invalid lesson ID format", nil)
			return
		}

		var req askRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := utils.WithAnswerTimeout(c.Request.Context())
		defer cancel()

		lesson, err := store.GetLesson(ctx, lessonID)
		if err != nil {
			if errors.Is(err, services.ErrNotFound) {
				utils.RespondWithNotFound(c, "Lesson not found")
				return
			}
			utils.RespondWithInternalError(c, "Failed to load lesson", nil)
			return
		}

		started := time.Now()
		answer, err := assistant.Ask(ctx, req.Question, services.Scope{
			CourseID: lesson.CourseID,
			LessonID: lesson.ID,
		})
		if err != nil {
			logger.Error("Assistant request failed", "lesson_id", lessonID.Hex(), "error", err)
			utils.RespondWithInternalError(c, "Failed to answer question", nil)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"answer":     answer.Text,
			"sources":    answer.Sources,
			"latency_ms": int(time.Since(started).Milliseconds()),
		})
	})

	lessons.POST("/:lesson_id/ingest", func(c *gin.Context) {
		lessonID := c.Param("lesson_id")
		objID, err := primitive.ObjectIDFromHex(lessonID)
		if err != nil {
			utils.RespondWithBadRequest(c, "Invalid lesson ID format", nil)
			return
		}

		ctx, cancel := utils.WithTimeout(c.Request.Context())
		defer cancel()

		if _, err := store.GetLesson(ctx, objID); err != nil {
			if errors.Is(err, services.ErrNotFound) {
				utils.RespondWithNotFound(c, "Lesson not found")
				return
			}
			utils.RespondWithInternalError(c, "Failed to load lesson", nil)
			return
		}

		task, err := queue.NewLessonIngestTask(lessonID)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to create ingestion task", nil)
			return
		}
		info, err := asynqClient.EnqueueContext(ctx, task)
		if err != nil {
			logger.Error("Failed to enqueue lesson ingestion", "lesson_id", lessonID, "error", err)
			utils.RespondWithInternalError(c, "Failed to enqueue ingestion", nil)
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"lesson_id": lessonID,
			"task_id":   info.ID,
			"queue":     info.Queue,
		})
	})

	lessons.GET("/:lesson_id/transcript", func(c *gin.Context) {
		objID, err := primitive.ObjectIDFromHex(c.Param("lesson_id"))
		if err != nil {
			utils.RespondWithBadRequest(c, "Invalid lesson ID format", nil)
			return
		}

		ctx, cancel := utils.WithTimeout(c.Request.Context())
		defer cancel()

		transcript, err := store.GetTranscript(ctx, objID)
		if err != nil {
			if errors.Is(err, services.ErrNotFound) {
				utils.RespondWithNotFound(c, "Lesson has no transcript yet")
				return
			}
			utils.RespondWithInternalError(c, "Failed to load transcript", nil)
			return
		}

		c.JSON(http.StatusOK, transcript)
	})
}

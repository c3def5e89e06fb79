package handler

import "github.com/gin-gonic/gin"

// Handlers bundles every API handler mounted under the API prefix.
type Handlers struct {
	Students   *StudentHandler
	Relatives  *RelativeHandler
	Groups     *GroupHandler
	Lessons    *LessonHandler
	Attendance *AttendanceHandler
	Debts      *DebtHandler
}

// Register mounts the API routes on r.
func (h Handlers) Register(r gin.IRouter) {
	students := r.Group("/StudentPersonalInfo")
	students.GET("", h.Students.List)
	students.POST("", h.Students.Create)
	students.GET("/national-id/:nationalId", h.Students.GetByNationalID)
	students.GET("/:id", h.Students.Get)
	students.PUT("/:id", h.Students.Update)
	students.DELETE("/:id", h.Students.Deactivate)
	students.GET("/:id/with-parents", h.Students.GetWithParents)
	students.GET("/:id/details", h.Students.GetDetail)
	students.GET("/:id/profile-image", h.Students.GetProfileImage)
	students.PUT("/:id/profile-image", h.Students.UpdateProfileImage)
	students.DELETE("/:id/profile-image", h.Students.DeleteProfileImage)

	relatives := r.Group("/StudentRelatives")
	relatives.POST("", h.Relatives.Create)
	relatives.POST("/bulk", h.Relatives.BulkSave)
	relatives.GET("/student/:studentId", h.Relatives.ListByStudent)
	relatives.GET("/:id", h.Relatives.Get)
	relatives.PUT("/:id", h.Relatives.Update)
	relatives.DELETE("/:id", h.Relatives.Delete)

	groups := r.Group("/Groups")
	groups.GET("", h.Groups.List)
	groups.POST("", h.Groups.Create)
	groups.GET("/students-without-groups", h.Groups.StudentsWithoutGroup)
	groups.POST("/add-student", h.Groups.AddStudent)
	groups.GET("/:id", h.Groups.Get)
	groups.PUT("/:id", h.Groups.Update)
	groups.DELETE("/:id", h.Groups.Delete)
	groups.GET("/:id/students", h.Groups.ListStudents)
	groups.DELETE("/:id/students/:studentId", h.Groups.RemoveStudent)

	lessons := r.Group("/Lessons")
	lessons.GET("", h.Lessons.List)
	lessons.POST("", h.Lessons.Create)
	lessons.POST("/assign-student", h.Lessons.AssignStudent)
	lessons.GET("/student/:studentId", h.Lessons.ListByStudent)
	lessons.GET("/:id", h.Lessons.Get)
	lessons.PUT("/:id", h.Lessons.Update)
	lessons.DELETE("/:id", h.Lessons.Delete)
	lessons.GET("/:id/capacity-and-students", h.Lessons.CapacityAndStudents)
	lessons.GET("/:id/students-without-lesson", h.Lessons.StudentsWithoutLesson)
	lessons.DELETE("/:id/students/:studentId", h.Lessons.UnassignStudent)

	attendance := r.Group("/Attendances")
	attendance.GET("/lesson/:id/students", h.Attendance.LessonStudents)
	attendance.POST("/bulk-create", h.Attendance.BulkCreate)
	attendance.GET("/student/:studentId/lesson/:lessonId/percentage", h.Attendance.Percentage)
	attendance.GET("/student/:studentId/summary", h.Attendance.Summary)

	debts := r.Group("/Debts")
	debts.POST("", h.Debts.Create)
	debts.GET("/group-period-filter", h.Debts.PeriodFilter)
	debts.GET("/group-period-filter/export", h.Debts.ExportPeriod)
	debts.GET("/student/:id/details", h.Debts.StudentDetails)
	debts.GET("/:id", h.Debts.Get)
	debts.PUT("/:id", h.Debts.Update)
	debts.DELETE("/:id", h.Debts.Delete)
}

package routes

import (
	"net/http"

	"visadesk-backend/config"
	"visadesk-backend/controllers"
	"visadesk-backend/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers carries the controllers that need their own dependencies
type Handlers struct {
	Import    *controllers.ImportController
	Reminders *controllers.ReminderController
}

func SetupRouter(h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	origins := config.AppConfig.AllowedOrigins()
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	r.Use(cors.New(cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		AllowOriginFunc: func(origin string) bool {
			return allowed[origin]
		},
	}))

	r.Use(config.PerformanceLogger())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := r.Group("/auth")
	{
		auth.POST("/register", controllers.Register)
		auth.POST("/login", controllers.Login)
		auth.GET("/me", utils.AuthMiddleware(), controllers.Me)
	}

	api := r.Group("/api")
	api.Use(utils.AuthMiddleware())
	{
		clients := api.Group("/clients")
		{
			clients.POST("", controllers.CreateClient)
			clients.GET("", controllers.GetClients)
			clients.GET("/:id", controllers.GetClient)
			clients.PUT("/:id", controllers.UpdateClient)
			clients.DELETE("/:id", controllers.DeleteClient)
		}

		if h.Import != nil {
			api.POST("/import/clients", h.Import.ImportClients)
		}

		priceList := api.Group("/price-list")
		{
			priceList.POST("", controllers.CreatePriceItem)
			priceList.GET("", controllers.GetPriceItems)
			priceList.GET("/:id", controllers.GetPriceItem)
			priceList.PUT("/:id", controllers.UpdatePriceItem)
			priceList.DELETE("/:id", controllers.DeletePriceItem)
		}

		invoices := api.Group("/invoices")
		{
			invoices.POST("", controllers.CreateInvoice)
			invoices.POST("/preview", controllers.PreviewInvoice)
			invoices.GET("", controllers.GetInvoices)
			invoices.GET("/:id", controllers.GetInvoice)
			invoices.PUT("/:id", controllers.UpdateInvoice)
			invoices.POST("/:id/payments", controllers.RecordPayment)
			invoices.DELETE("/:id", controllers.DeleteInvoice)
		}

		appointments := api.Group("/appointments")
		{
			appointments.POST("", controllers.CreateAppointment)
			appointments.GET("", controllers.GetAppointments)
			appointments.GET("/:id", controllers.GetAppointment)
			appointments.PUT("/:id", controllers.UpdateAppointment)
			appointments.DELETE("/:id", controllers.DeleteAppointment)
		}

		documents := api.Group("/documents")
		{
			documents.POST("", controllers.CreateDocument)
			documents.GET("", controllers.GetDocuments)
			documents.GET("/:id", controllers.GetDocument)
			documents.PUT("/:id", controllers.UpdateDocument)
			documents.POST("/:id/verify", controllers.VerifyDocument)
			documents.DELETE("/:id", controllers.DeleteDocument)
		}

		cases := api.Group("/cases")
		{
			cases.POST("", controllers.CreateCase)
			cases.GET("", controllers.GetCases)
			cases.GET("/:id", controllers.GetCase)
			cases.DELETE("/:id", controllers.DeleteCase)
			cases.POST("/:id/events", controllers.AddCaseEvent)
			cases.GET("/:id/timeline", controllers.GetCaseTimeline)
			cases.GET("/:id/timeline/export", controllers.ExportCaseTimeline)
			cases.POST("/:id/timeline/import", controllers.ImportCaseTimeline)
		}

		reportController := controllers.ReportController{}
		api.GET("/reports", reportController.GetReportAnalytics)

		api.GET("/dashboard", controllers.GetDashboardOverview)

		profile := api.Group("/profile")
		{
			profile.GET("", controllers.GetProfile)
			profile.PUT("/agency", controllers.UpdateAgency)
			profile.PUT("/notifications", controllers.UpdateNotificationSettings)
		}

		reminders := api.Group("/reminders")
		{
			reminders.GET("/templates", controllers.GetReminderTemplates)
			reminders.POST("/templates", controllers.CreateReminderTemplate)
			reminders.GET("/templates/:id", controllers.GetReminderTemplate)
			reminders.PUT("/templates/:id", controllers.UpdateReminderTemplate)
			reminders.DELETE("/templates/:id", controllers.DeleteReminderTemplate)
			if h.Reminders != nil {
				reminders.GET("/logs", h.Reminders.GetReminderLogs)
				reminders.POST("/run", h.Reminders.RunReminders)
			}
		}

		staff := api.Group("/staff")
		{
			staff.GET("", controllers.GetStaff)
			staff.POST("", controllers.AddStaff)
		}
	}

	return r
}

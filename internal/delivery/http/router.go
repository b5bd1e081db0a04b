package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"lettermill/internal/delivery/http/controllers"
)

// NewRouter initializes the HTTP router with all application routes
func NewRouter(subscriptions *controllers.SubscriptionController, newsletters *controllers.NewsletterController) *http.ServeMux {
	mux := http.NewServeMux()

	// API Routes
	mux.HandleFunc("POST /subscriptions", subscriptions.Subscribe)
	mux.HandleFunc("GET /subscriptions/confirm", subscriptions.Confirm)
	mux.HandleFunc("POST /newsletters", newsletters.Publish)

	mux.HandleFunc("GET /health_check", healthCheck)

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

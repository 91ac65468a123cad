package router

import (
	"database/sql"
	"net/http"

	blogHandler "homesite/internal/blog"
	"homesite/internal/blog/repository"
	"homesite/internal/blog/service"
	"homesite/middleware"
	"homesite/socket"

	"github.com/gorilla/mux"
)

func Setup(db *sql.DB, hub *socket.Hub, secret []byte) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	// WebSocket
	realtime := r.PathPrefix("/realtime/v1").Subrouter()
	realtime.Use(middleware.APIKeyMiddleware(secret))
	realtime.HandleFunc("/websocket", func(w http.ResponseWriter, r *http.Request) {
		socket.ServeWs(hub, w, r)
	}).Methods(http.MethodGet)

	// REST API
	blogRepo := repository.NewBlogRepository(db)
	blogService := service.NewBlogService(blogRepo, hub)
	blogHandler := blogHandler.NewBlogHandler(blogService)

	api := r.PathPrefix("/rest/v1").Subrouter()
	api.Use(middleware.APIKeyMiddleware(secret))
	api.HandleFunc("/logs", blogHandler.ListPosts).Methods(http.MethodGet)
	api.HandleFunc("/logs", blogHandler.CreatePost).Methods(http.MethodPost)
	api.HandleFunc("/logs/{id:[0-9]+}", blogHandler.UpdatePost).Methods(http.MethodPatch)
	api.HandleFunc("/logs/{id:[0-9]+}", blogHandler.DeletePost).Methods(http.MethodDelete)
	api.HandleFunc("/rpc/increment_views", blogHandler.IncrementViews).Methods(http.MethodPost)
	api.HandleFunc("/messages", blogHandler.ListComments).Methods(http.MethodGet)
	api.HandleFunc("/messages", blogHandler.CreateComment).Methods(http.MethodPost)
	api.HandleFunc("/post_comments", blogHandler.ListPostComments).Methods(http.MethodGet)
	api.HandleFunc("/post_comments", blogHandler.CreatePostComment).Methods(http.MethodPost)

	return middleware.CORSMiddleware(middleware.LoggerMiddleware(middleware.RecoverMiddleware(r)))
}

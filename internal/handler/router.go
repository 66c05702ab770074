package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ticket-rag/backend/internal/service"
	"go.uber.org/zap"
)

type RouterDeps struct {
	Bot            *BotHandler
	Board          *BoardHandler
	Tickets        *TicketHandler
	Tokens         *service.TokenService
	AllowedOrigins []string
	Logger         *zap.Logger
}

// NewRouter wires every HTTP route.
//
//	/bot, /chat          대화 (dashboard 가 직접 호출, 인증 없음)
//	/api/tickets         dashboard 티켓 보드 (인증 없음)
//	/api/v1/tickets/...  인덱스 조회/재동기화 (API_JWT_SECRET 이 있으면 bearer 필요)
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if deps.Logger != nil {
		router.Use(RequestLogger(deps.Logger))
	}
	router.Use(CORSMiddleware(deps.AllowedOrigins))

	router.GET("/", Root)
	router.GET("/ping", Ping)
	router.GET("/openapi.json", OpenAPIDoc)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/bot", deps.Bot.Bot)
	router.POST("/chat", deps.Bot.Chat)
	router.GET("/api/tickets", deps.Board.GetBoard)

	api := router.Group("/api/v1", AuthMiddleware(deps.Tokens))
	api.GET("/tickets", deps.Tickets.ListTickets)
	api.GET("/tickets/similar", deps.Tickets.SimilarTickets)
	api.POST("/tickets/sync", deps.Tickets.SyncTickets)

	return router
}

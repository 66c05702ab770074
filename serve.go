package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/ticket-rag/backend/internal/client"
	"github.com/ticket-rag/backend/internal/handler"
	"github.com/ticket-rag/backend/internal/service"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func serveCMD() *cobra.Command {
	var storeKind string
	var syncOnStart bool
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, storeKind, syncOnStart)
		},
	}
	serve.Flags().StringVar(&storeKind, "store", storePostgres, "vector store backend (postgres|memory)")
	serve.Flags().BoolVar(&syncOnStart, "sync", false, "run a ticket sync before accepting requests")
	return serve
}

func runServer(ctx context.Context, storeKind string, syncOnStart bool) error {
	a, err := newApp(ctx, storeKind)
	if err != nil {
		return err
	}
	defer a.Close()
	log := a.log

	chatClient, err := client.NewGenAIChatClient(a.cfg.Chat)
	if err != nil {
		return fmt.Errorf("failed to init chat client: %w", err)
	}
	// *GenAIChat 를 ChatSession 으로 노출 (nil 포인터가 interface 로 새지 않도록 분기)
	chatModel := service.ChatModelFunc(func(ctx context.Context) (service.ChatSession, error) {
		chat, err := chatClient.StartChat(ctx)
		if err != nil {
			return nil, err
		}
		return chat, nil
	})

	tokens, err := service.NewTokenService(a.cfg.Server)
	if err != nil {
		return err
	}
	if !tokens.Enabled() {
		log.Warn("[Auth] API_JWT_SECRET not set, /api/v1 is unauthenticated")
	}

	ingest := a.ingestService()
	retrieval := a.retrievalService()
	sessions := service.NewSessionStore(a.cfg.Chat.SessionTTL, a.cfg.Chat.SessionMax, a.cfg.Chat.SessionMaxTurns)
	chat := service.NewChatService(retrieval, chatModel, sessions, a.cfg.Chat, log)

	if syncOnStart || storeKind == storeMemory {
		result, err := ingest.Sync(ctx, "")
		if err != nil {
			return fmt.Errorf("initial sync failed: %w", err)
		}
		log.Info("[Ingest] Initial sync", zap.String("status", result.Status), zap.Int("indexed", result.Indexed))
	}

	board := service.NewBoardService(a.jira, a.cfg.Jira, log)

	gin.SetMode(gin.ReleaseMode)
	router := handler.NewRouter(handler.RouterDeps{
		Bot:            handler.NewBotHandler(chat),
		Board:          handler.NewBoardHandler(board),
		Tickets:        handler.NewTicketHandler(a.store, retrieval, ingest),
		Tokens:         tokens,
		AllowedOrigins: a.cfg.Server.AllowedOrigins,
		Logger:         log,
	})

	srv := &http.Server{
		Addr:              ":" + a.cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("[Server] Listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("[Server] Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

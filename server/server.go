// Command server exposes the knowledge base over WebSocket for the
// interactive front end: clients send queries and freshly extracted records,
// the server answers with grounded responses.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"

	"github.com/jdigiovanni4/rag-utility-doc-processor/internal/models"
	"github.com/jdigiovanni4/rag-utility-doc-processor/internal/types"
	"github.com/jdigiovanni4/rag-utility-doc-processor/pkg/config"
	"github.com/jdigiovanni4/rag-utility-doc-processor/pkg/kb"
	"github.com/jdigiovanni4/rag-utility-doc-processor/pkg/llm"
	"github.com/jdigiovanni4/rag-utility-doc-processor/pkg/loader"
	"github.com/jdigiovanni4/rag-utility-doc-processor/pkg/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Be careful with this in production
	},
}

type Message struct {
	Type    string                  `json:"type"`
	Content string                  `json:"content"`
	Records []models.DocumentRecord `json:"records,omitempty"`
}

type WSServer struct {
	manager   *kb.Manager
	generator types.Generator
}

func NewWSServer(cfg *config.Config) (*WSServer, func(), error) {
	ctx := context.Background()

	vectorStore, err := store.NewWithConfig(ctx, store.VectorStoreConfig{
		ConnString: cfg.Database.URL,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize vector store: %w", err)
	}

	embedder, err := llm.NewEmbedder(llm.EmbedderConfig{
		APIKey:    cfg.OpenAI.APIKey,
		Model:     cfg.OpenAI.EmbeddingModel,
		BatchSize: cfg.Database.BatchSize,
		RateLimit: cfg.Pipeline.RateLimit,
	})
	if err != nil {
		vectorStore.Close()
		return nil, nil, err
	}

	generator, err := llm.NewGenerator(llm.GeneratorConfig{
		APIKey:    cfg.OpenAI.APIKey,
		Model:     cfg.OpenAI.Model,
		MaxTokens: cfg.OpenAI.MaxTokens,
	})
	if err != nil {
		vectorStore.Close()
		return nil, nil, err
	}

	manager := kb.NewManager(kb.ManagerConfig{
		Collection: cfg.Database.Collection,
		VectorDim:  cfg.Database.VectorDim,
		BatchSize:  cfg.Database.BatchSize,
		SearchK:    cfg.Database.SearchK,
	}, embedder, vectorStore, loader.NewDirectorySource(cfg.Pipeline.FinalJSONDir))

	server := &WSServer{
		manager:   manager,
		generator: generator,
	}
	return server, vectorStore.Close, nil
}

func (s *WSServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Printf("Error reading message: %v", err)
			break
		}

		var msg Message
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("Error unmarshaling message: %v", err)
			continue
		}

		s.handleMessage(r.Context(), conn, msg)
	}
}

func (s *WSServer) handleMessage(ctx context.Context, conn *websocket.Conn, msg Message) {
	switch msg.Type {
	case "query":
		s.handleQuery(ctx, conn, msg.Content)
	case "ingest":
		s.handleIngest(ctx, conn, msg.Records)
	default:
		s.sendMessage(conn, "error", fmt.Sprintf("Unknown message type: %s", msg.Type))
	}
}

func (s *WSServer) handleQuery(ctx context.Context, conn *websocket.Conn, query string) {
	s.sendMessage(conn, "status", "Searching knowledge base...")

	contexts, err := s.manager.Retrieve(ctx, query, 0)
	if err != nil {
		s.sendMessage(conn, "error", fmt.Sprintf("Error searching knowledge base: %v", err))
		return
	}

	s.sendMessage(conn, "status", "Generating answer...")

	answer, err := s.generator.Answer(ctx, query, contexts)
	if err != nil {
		s.sendMessage(conn, "error", fmt.Sprintf("Error generating answer: %v", err))
		return
	}

	s.sendMessage(conn, "response", answer)
}

func (s *WSServer) handleIngest(ctx context.Context, conn *websocket.Conn, records []models.DocumentRecord) {
	// Writers must be serialized: id assignment reads the collection count
	// just before each append. The read loop dispatches messages one at a
	// time per connection, and one deployment runs one server, so ingest
	// calls never overlap here.
	added, err := s.manager.IngestRecords(ctx, records)
	if err != nil {
		s.sendMessage(conn, "error", fmt.Sprintf("Failed to update knowledge base: %v", err))
		return
	}

	s.sendMessage(conn, "status", fmt.Sprintf("Added %d new document(s) to knowledge base", added))
}

func (s *WSServer) sendMessage(conn *websocket.Conn, msgType string, content string) {
	msg := Message{
		Type:    msgType,
		Content: content,
	}
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}

func main() {
	_ = godotenv.Load()

	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatal(err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			log.Printf("Configuration error: %v", e)
		}
		log.Fatal("invalid configuration")
	}

	server, cleanup, err := NewWSServer(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer cleanup()

	http.HandleFunc("/ws", server.handleWebSocket)

	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting WebSocket server on port %s", port)
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Fatal(err)
	}
}

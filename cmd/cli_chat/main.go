package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"shop-chat/internal/config"
	"shop-chat/internal/db"
	"shop-chat/internal/domain"
	"shop-chat/internal/llm"
	"shop-chat/internal/repository"
	"shop-chat/internal/service"
)

func main() {
	username := flag.String("user", "demo_user", "username que conversa (se crea si no existe)")
	flag.Parse()

	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger, _ := zap.NewDevelopment(zap.IncreaseLevel(zap.WarnLevel))
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	if cfg.AutoMigrate {
		if err := db.Migrate(pool, logger); err != nil {
			log.Fatalf("migrar: %v", err)
		}
	}

	userRepo := repository.NewPgUserRepository(pool)
	conversationRepo := repository.NewPgConversationRepository(pool)
	messageRepo := repository.NewPgMessageRepository(pool)
	productRepo := repository.NewPgProductRepository(pool)

	llmClient := llm.NewOpenAIClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, logger)
	chatSvc := service.NewChatService(
		conversationRepo,
		service.NewMessageService(messageRepo),
		service.NewContextBuilder(cfg.SystemPrompt, productRepo, cfg.ContextMaxHistory, logger),
		service.NewGenerationService(llmClient, cfg.LLMTimeout, logger),
		service.NewMemoryConversationLocker(),
		logger,
	)
	userSvc := service.NewUserService(logger, userRepo, conversationRepo)

	user, err := userSvc.EnsureUser(ctx, service.CreateUserInput{Username: *username})
	if err != nil {
		log.Fatal(err)
	}

	for {
		fmt.Printf("\n===== Shop Assistant (%s) =====\n", user.Username)
		fmt.Println("[1] Conversacion nueva")
		fmt.Println("[2] Continuar conversacion")
		fmt.Println("[3] Buscar productos")
		fmt.Println("[4] Salir")
		fmt.Print("Selecciona una opcion: ")

		line, _ := reader.ReadString('\n')
		switch strings.TrimSpace(line) {
		case "1":
			if err := chatFlow(ctx, reader, chatSvc, user, ""); err != nil {
				fmt.Printf("Error en chat: %v\n", err)
			}
		case "2":
			conversationID, err := pickConversation(ctx, reader, userSvc, chatSvc, user)
			if err != nil {
				fmt.Printf("Error listando conversaciones: %v\n", err)
				continue
			}
			if conversationID == "" {
				continue
			}
			if err := chatFlow(ctx, reader, chatSvc, user, conversationID); err != nil {
				fmt.Printf("Error en chat: %v\n", err)
			}
		case "3":
			if err := searchFlow(ctx, reader, productRepo); err != nil {
				fmt.Printf("Error buscando: %v\n", err)
			}
		case "4", "":
			return
		default:
			fmt.Println("Opcion invalida.")
		}
	}
}

func chatFlow(ctx context.Context, reader *bufio.Reader, chatSvc *service.ChatService, user domain.User, conversationID string) error {
	fmt.Println("---- Modo Chat (escribe 'salir' para terminar chat) ----")
	for {
		fmt.Print("Tu > ")
		text, err := reader.ReadString('\n')
		if err != nil {
			return nil
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if strings.EqualFold(text, "salir") {
			fmt.Println("Saliendo del chat...")
			return nil
		}

		result, err := chatSvc.Handle(ctx, service.ChatInput{
			UserID:         user.ID,
			Message:        text,
			ConversationID: conversationID,
		})
		if err != nil {
			return err
		}
		conversationID = result.ConversationID
		fmt.Printf("Asistente > %s\n", result.AssistantMessage.Content)
	}
}

func pickConversation(ctx context.Context, reader *bufio.Reader, userSvc *service.UserService, chatSvc *service.ChatService, user domain.User) (string, error) {
	conversations, err := userSvc.ListConversations(ctx, user.ID)
	if err != nil {
		return "", err
	}
	if len(conversations) == 0 {
		fmt.Println("No hay conversaciones todavia.")
		return "", nil
	}
	for i, c := range conversations {
		fmt.Printf("[%d] %s (%s)\n", i+1, c.Title, c.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	fmt.Print("Selecciona una conversacion: ")
	choice, _ := reader.ReadString('\n')
	idx, err := strconv.Atoi(strings.TrimSpace(choice))
	if err != nil || idx < 1 || idx > len(conversations) {
		fmt.Println("Seleccion invalida.")
		return "", nil
	}

	selected := conversations[idx-1]
	history, err := chatSvc.ConversationMessages(ctx, selected.ID)
	if err != nil {
		return "", err
	}
	for _, m := range history {
		speaker := "Asistente"
		if m.IsUserMessage {
			speaker = "Tu"
		}
		fmt.Printf("%s > %s\n", speaker, m.Content)
	}
	return selected.ID, nil
}

func searchFlow(ctx context.Context, reader *bufio.Reader, products repository.ProductRepository) error {
	fmt.Print("Buscar: ")
	q, _ := reader.ReadString('\n')
	q = strings.TrimSpace(q)
	if len([]rune(q)) < 2 {
		fmt.Println("La busqueda necesita al menos 2 caracteres.")
		return nil
	}
	found, err := products.Search(ctx, q)
	if err != nil {
		return err
	}
	if len(found) == 0 {
		fmt.Println("Sin resultados.")
		return nil
	}
	fmt.Println(service.FormatProductFacts(found))
	return nil
}

package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"canteen-pos/internal/database"
	"canteen-pos/internal/models"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
	"gorm.io/gorm"
)

// Agent answers admin questions about the canteen by calling read-only
// tools over the store. It never mutates anything: price and stock edits
// stay on the audited catalog endpoints.
type Agent struct {
	db *gorm.DB
}

func NewAgent(db *gorm.DB) *Agent {
	return &Agent{db: db}
}

func (a *Agent) Run(ctx context.Context, userMessage string, apiKey string) (string, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return "", err
	}
	defer client.Close()

	model := client.GenerativeModel("gemini-2.0-flash-001")

	today := time.Now().Format("2006-01-02")

	systemPrompt := fmt.Sprintf(`SYSTEM: Today is %s. You are the canteen POS assistant.

	RULES:
	1. PRODUCTS: For any question about a product's price, cost, stock or
	   category, call 'check_inventory' and read the answer from the JSON.
	2. SALES: For revenue or bill-count questions, call 'get_sales_report'
	   with a date range.
	3. RESTOCKING: For "what should we reorder" questions, call 'low_stock'.
	Answer in one or two sentences, amounts in rupees.

	USER: %s`, today, userMessage)

	model.Tools = []*genai.Tool{
		{
			FunctionDeclarations: []*genai.FunctionDeclaration{
				{
					Name:        "check_inventory",
					Description: "Get the active catalog. Use this to find ANY product details like ID, Name, Price, Cost, or Stock.",
				},
				{
					Name:        "get_sales_report",
					Description: "Get total billed revenue and bill count for a date range.",
					Parameters: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"start_date": {Type: genai.TypeString, Description: "Start date (YYYY-MM-DD)"},
							"end_date":   {Type: genai.TypeString, Description: "End date (YYYY-MM-DD)"},
						},
						Required: []string{"start_date", "end_date"},
					},
				},
				{
					Name:        "low_stock",
					Description: "List products at or below their minimum stock level.",
				},
			},
		},
	}

	session := model.StartChat()

	resp, err := session.SendMessage(ctx, genai.Text(systemPrompt))
	if err != nil {
		return "", err
	}

	for _, part := range resp.Candidates[0].Content.Parts {
		if funcCall, ok := part.(genai.FunctionCall); ok {
			switch funcCall.Name {
			case "check_inventory":
				return a.executeInventory(ctx, session)
			case "get_sales_report":
				return a.executeSalesReport(ctx, session, funcCall)
			case "low_stock":
				return a.executeLowStock(ctx, session)
			}
		}
	}

	return printResponse(resp), nil
}

func (a *Agent) executeInventory(ctx context.Context, session *genai.ChatSession) (string, error) {
	var products []models.Product
	if err := a.db.Where("is_active = ?", true).Find(&products).Error; err != nil {
		return "", err
	}

	type SimpleProduct struct {
		ID       uint   `json:"id"`
		Name     string `json:"name"`
		Category string `json:"category"`
		Stock    int    `json:"stock"`
		Price    string `json:"price"`
		Cost     string `json:"cost"`
	}
	simpleList := make([]SimpleProduct, 0, len(products))
	for _, p := range products {
		simpleList = append(simpleList, SimpleProduct{
			ID:       p.ID,
			Name:     p.Name,
			Category: p.Category,
			Stock:    p.StockQuantity,
			Price:    p.Price.StringFixed(2),
			Cost:     p.CostPrice.StringFixed(2),
		})
	}

	jsonBytes, _ := json.Marshal(simpleList)

	finalResp, err := session.SendMessage(ctx, genai.FunctionResponse{
		Name:     "check_inventory",
		Response: map[string]interface{}{"inventory": string(jsonBytes)},
	})
	if err != nil {
		return "", err
	}
	return printResponse(finalResp), nil
}

func (a *Agent) executeSalesReport(ctx context.Context, session *genai.ChatSession, funcCall genai.FunctionCall) (string, error) {
	args := funcCall.Args
	startStr, _ := args["start_date"].(string)
	endStr, _ := args["end_date"].(string)

	start, err1 := time.Parse("2006-01-02", startStr)
	end, err2 := time.Parse("2006-01-02", endStr)
	if err1 != nil || err2 != nil {
		return "Error: Dates must be in YYYY-MM-DD format.", nil
	}
	end = end.Add(23*time.Hour + 59*time.Minute)

	report, err := database.GetRangeSummary(a.db, start, end)
	if err != nil {
		return "", err
	}

	finalResp, err := session.SendMessage(ctx, genai.FunctionResponse{
		Name: "get_sales_report",
		Response: map[string]interface{}{
			"revenue":    report.TotalRevenue.StringFixed(2),
			"bill_count": report.TotalCount,
		},
	})
	if err != nil {
		return "", err
	}
	return printResponse(finalResp), nil
}

func (a *Agent) executeLowStock(ctx context.Context, session *genai.ChatSession) (string, error) {
	var products []models.Product
	err := a.db.Where("stock_quantity <= min_stock_level AND is_active = ?", true).
		Find(&products).Error
	if err != nil {
		return "", err
	}

	type LowItem struct {
		Name    string `json:"name"`
		Stock   int    `json:"stock"`
		Minimum int    `json:"minimum"`
	}
	items := make([]LowItem, 0, len(products))
	for _, p := range products {
		items = append(items, LowItem{Name: p.Name, Stock: p.StockQuantity, Minimum: p.MinStockLevel})
	}

	jsonBytes, _ := json.Marshal(items)

	finalResp, err := session.SendMessage(ctx, genai.FunctionResponse{
		Name:     "low_stock",
		Response: map[string]interface{}{"low_stock": string(jsonBytes)},
	})
	if err != nil {
		return "", err
	}
	return printResponse(finalResp), nil
}

func printResponse(resp *genai.GenerateContentResponse) string {
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			return string(txt)
		}
	}
	return "I completed the action."
}

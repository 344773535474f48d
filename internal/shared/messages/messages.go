package messages

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
)

type MessageText struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Render substitutes {name} placeholders from vars.
func (m MessageText) Render(vars map[string]string) MessageText {
	if len(vars) == 0 {
		return m
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	r := strings.NewReplacer(pairs...)
	return MessageText{Title: r.Replace(m.Title), Body: r.Replace(m.Body)}
}

type Messages struct {
	TransactionDebit  MessageText `json:"transaction_debit"`
	TransactionCredit MessageText `json:"transaction_credit"`
	TransferSent      MessageText `json:"transfer_sent"`
	TransferReceived  MessageText `json:"transfer_received"`
	BillPaid          MessageText `json:"bill_paid"`
	BudgetThreshold   MessageText `json:"budget_threshold"`
	Reversal          MessageText `json:"reversal"`
}

// Defaults returns the built-in templates.
func Defaults() *Messages {
	return &Messages{
		TransactionDebit: MessageText{
			Title: "Debit of {amount}",
			Body:  "{amount} was debited from account {account} for {category}. Balance: {balance}",
		},
		TransactionCredit: MessageText{
			Title: "Credit of {amount}",
			Body:  "{amount} was credited to account {account}. Balance: {balance}",
		},
		TransferSent: MessageText{
			Title: "Transfer successful",
			Body:  "You sent {amount} to {target} from account {account}",
		},
		TransferReceived: MessageText{
			Title: "Money received",
			Body:  "{amount} was credited to account {account}",
		},
		BillPaid: MessageText{
			Title: "{billType} bill paid",
			Body:  "{amount} paid to {biller} (ref {reference}). You earned {points} reward points",
		},
		BudgetThreshold: MessageText{
			Title: "Budget alert: {category}",
			Body:  "You have used {percent}% of your {category} budget for {period}",
		},
		Reversal: MessageText{
			Title: "Transaction reversed",
			Body:  "{amount} was reversed on account {account}",
		},
	}
}

var (
	loaded   *Messages
	loadOnce sync.Once
	loadErr  error
)

// Load reads the notifications JSON file and caches the result. Templates
// missing from the file fall back to Defaults. An empty path yields Defaults.
// Safe to call from multiple goroutines.
func Load(path string) (*Messages, error) {
	loadOnce.Do(func() {
		if path == "" {
			loaded = Defaults()
			return
		}
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read messages file: %w", err)
			return
		}
		loaded, loadErr = Parse(data)
	})
	if loadErr != nil {
		return nil, loadErr
	}
	return loaded, nil
}

// Parse decodes templates from JSON, filling gaps from Defaults.
func Parse(data []byte) (*Messages, error) {
	var m Messages
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse messages file: %w", err)
	}
	d := Defaults()
	fill(&m.TransactionDebit, d.TransactionDebit)
	fill(&m.TransactionCredit, d.TransactionCredit)
	fill(&m.TransferSent, d.TransferSent)
	fill(&m.TransferReceived, d.TransferReceived)
	fill(&m.BillPaid, d.BillPaid)
	fill(&m.BudgetThreshold, d.BudgetThreshold)
	fill(&m.Reversal, d.Reversal)
	return &m, nil
}

func fill(dst *MessageText, def MessageText) {
	if dst.Title == "" {
		dst.Title = def.Title
	}
	if dst.Body == "" {
		dst.Body = def.Body
	}
}

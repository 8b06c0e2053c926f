// Package ofx converts OFX/QFX bank statements into ledger transactions.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/aclindsa/ofxgo"

	"github.com/kakeibo-go/kakeibo/internal/model"
)

// Parser implements OFX/QFX file parsing.
type Parser struct{}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{}
}

// preprocessOFX fixes common formatting issues in OFX files.
func (p *Parser) preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	// Mixed-case SEVERITY values (must be INFO, WARN, or ERROR)
	severityRegex := regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	// SGML-style files sometimes omit the closing angle bracket on a
	// bare tag at end of line
	tagFixRegex := regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
	content = tagFixRegex.ReplaceAllString(content, "$1>")

	return content
}

// ParseFile parses an OFX/QFX file and returns ledger transactions.
// The category reference is left unset; the importer assigns it.
func (p *Parser) ParseFile(_ context.Context, reader io.Reader) ([]model.Transaction, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var transactions []model.Transaction
	var bankStmts, ccStmts int

	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			bankStmts++
			transactions = append(transactions, p.convertStatement(stmt.BankTranList)...)
		}
	}

	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			ccStmts++
			transactions = append(transactions, p.convertStatement(stmt.BankTranList)...)
		}
	}

	slog.Info("parsed OFX file",
		"transactions", len(transactions),
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)

	return transactions, nil
}

func (p *Parser) convertStatement(list *ofxgo.TransactionList) []model.Transaction {
	if list == nil {
		return nil
	}

	txns := make([]model.Transaction, 0, len(list.Transactions))
	for _, ofxTx := range list.Transactions {
		txns = append(txns, p.convertTransaction(ofxTx))
	}
	return txns
}

// convertTransaction maps one OFX record to the ledger model. OFX uses
// signed amounts, negative for debits; the ledger stores a non-negative
// amount plus an expense/income type.
func (p *Parser) convertTransaction(ofxTx ofxgo.Transaction) model.Transaction {
	amount, _ := ofxTx.TrnAmt.Float64()
	txnType := model.TypeIncome
	if amount < 0 {
		amount = -amount
		txnType = model.TypeExpense
	}

	return model.Transaction{
		Date:   ofxTx.DtPosted.Time,
		Note:   extractNote(ofxTx),
		Type:   txnType,
		Amount: amount,
	}
}

// extractNote picks the most descriptive text an OFX record carries.
func extractNote(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return string(tx.Payee.Name)
	}

	note := strings.TrimSpace(string(tx.Name))
	if tx.Memo != "" && isGenericDescription(note) {
		note = strings.TrimSpace(string(tx.Memo))
	}
	return note
}

// isGenericDescription checks if a transaction name is too generic to
// be worth keeping over the memo field.
func isGenericDescription(name string) bool {
	switch strings.ToUpper(name) {
	case "DEBIT", "CREDIT", "PURCHASE", "PAYMENT", "POS TRANSACTION", "CARD PURCHASE":
		return true
	}
	return false
}

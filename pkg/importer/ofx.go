package importer

import (
	"fmt"
	"io"
	"strings"

	"fintrack/pkg/ledger"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"
)

const unknownOFXDescription = "Unknown OFX Transaction"

// ParseOFX reads bank and credit card statements from an OFX or QFX file.
func ParseOFX(r io.Reader) ([]ledger.Transaction, error) {
	resp, err := ofxgo.ParseResponse(r)
	if err != nil {
		return nil, fmt.Errorf("parse ofx: %w", err)
	}
	var txns []ofxgo.Transaction
	for _, msg := range resp.Bank {
		if st, ok := msg.(*ofxgo.StatementResponse); ok && st.BankTranList != nil {
			txns = append(txns, st.BankTranList.Transactions...)
		}
	}
	for _, msg := range resp.CreditCard {
		if st, ok := msg.(*ofxgo.CCStatementResponse); ok && st.BankTranList != nil {
			txns = append(txns, st.BankTranList.Transactions...)
		}
	}
	return fromOFX(txns)
}

func fromOFX(txns []ofxgo.Transaction) ([]ledger.Transaction, error) {
	out := make([]ledger.Transaction, 0, len(txns))
	for _, tx := range txns {
		amount, err := decimal.NewFromString(tx.TrnAmt.FloatString(2))
		if err != nil {
			return out, fmt.Errorf("ofx amount %s: %w", tx.FiTID, err)
		}
		out = append(out, ledger.Transaction{
			ExternalID:  "ofx_" + string(tx.FiTID),
			Date:        ledger.DateOnly(tx.DtPosted.Time),
			Description: ofxDescription(tx),
			Amount:      amount,
		})
	}
	return out, nil
}

func ofxDescription(tx ofxgo.Transaction) string {
	if tx.Payee != nil {
		if name := strings.TrimSpace(string(tx.Payee.Name)); name != "" {
			return name
		}
	}
	if name := strings.TrimSpace(string(tx.Name)); name != "" {
		return name
	}
	if memo := strings.TrimSpace(string(tx.Memo)); memo != "" {
		return memo
	}
	return unknownOFXDescription
}

package edgar

import (
	"encoding/xml"
	"strings"
	"time"

	"stockwatch/internal/errors"
	"stockwatch/internal/models"
)

// ownershipDocument mirrors the SEC Form 4 XML schema, reduced to the
// fields the insider tracker consumes.
type ownershipDocument struct {
	XMLName xml.Name `xml:"ownershipDocument"`
	Issuer  struct {
		TradingSymbol string `xml:"issuerTradingSymbol"`
	} `xml:"issuer"`
	Owner struct {
		ID struct {
			Name string `xml:"rptOwnerName"`
		} `xml:"reportingOwnerId"`
		Relationship struct {
			IsDirector        string `xml:"isDirector"`
			IsOfficer         string `xml:"isOfficer"`
			IsTenPercentOwner string `xml:"isTenPercentOwner"`
			OfficerTitle      string `xml:"officerTitle"`
		} `xml:"reportingOwnerRelationship"`
	} `xml:"reportingOwner"`
	NonDerivativeTable struct {
		Transactions []form4Transaction `xml:"nonDerivativeTransaction"`
	} `xml:"nonDerivativeTable"`
}

type form4Transaction struct {
	Date struct {
		Value string `xml:"value"`
	} `xml:"transactionDate"`
	Coding struct {
		Code string `xml:"transactionCode"`
	} `xml:"transactionCoding"`
	Amounts struct {
		Shares struct {
			Value float64 `xml:"value"`
		} `xml:"transactionShares"`
		Price struct {
			Value float64 `xml:"value"`
		} `xml:"transactionPricePerShare"`
	} `xml:"transactionAmounts"`
}

// parseOwnershipDocument extracts the reporting owner and their
// non-derivative transactions from a Form 4 XML document.
func parseOwnershipDocument(symbol string, data []byte, accessionNo string) ([]models.InsiderTransaction, error) {
	var doc ownershipDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, errors.NewParseError(source, symbol, "decoding ownership document", err)
	}

	owner := strings.TrimSpace(doc.Owner.ID.Name)
	if owner == "" {
		return nil, errors.NewParseError(source, symbol, "ownership document missing reporting owner", nil)
	}
	role := ownerRole(doc)

	var transactions []models.InsiderTransaction
	for _, t := range doc.NonDerivativeTable.Transactions {
		code := strings.TrimSpace(t.Coding.Code)
		if code == "" {
			continue
		}
		date, err := time.Parse("2006-01-02", strings.TrimSpace(t.Date.Value))
		if err != nil {
			continue
		}

		shares := t.Amounts.Shares.Value
		price := t.Amounts.Price.Value
		transactions = append(transactions, models.InsiderTransaction{
			Owner:       owner,
			Role:        role,
			Date:        date.UTC(),
			Code:        code,
			Shares:      shares,
			Price:       price,
			Value:       shares * price,
			FormType:    "4",
			AccessionNo: accessionNo,
		})
	}
	return transactions, nil
}

func ownerRole(doc ownershipDocument) string {
	rel := doc.Owner.Relationship
	switch {
	case flagSet(rel.IsOfficer) && strings.TrimSpace(rel.OfficerTitle) != "":
		return strings.TrimSpace(rel.OfficerTitle)
	case flagSet(rel.IsOfficer):
		return "Officer"
	case flagSet(rel.IsDirector):
		return "Director"
	case flagSet(rel.IsTenPercentOwner):
		return "10% Owner"
	}
	return "Other"
}

// flagSet interprets the schema's boolean spellings ("1", "true").
func flagSet(v string) bool {
	v = strings.TrimSpace(strings.ToLower(v))
	return v == "1" || v == "true"
}

package edgar

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"stockwatch/internal/errors"
)

func browsePage(filedAt string) string {
	return fmt.Sprintf(`<html><body>
<table class="tableFile2" summary="Results">
<tr><th>Filings</th><th>Format</th><th>Description</th><th>Filing Date</th></tr>
<tr>
  <td nowrap="nowrap">4</td>
  <td nowrap="nowrap"><a href="/Archives/edgar/data/320193/000032019324000069-index.htm" id="documentsbutton">&nbsp;Documents</a></td>
  <td>Statement of changes in beneficial ownership of securities<br>Acc-no: 0000320193-24-000069 (34 Act)</td>
  <td>%s</td>
</tr>
<tr>
  <td nowrap="nowrap">10-K</td>
  <td nowrap="nowrap"><a href="/Archives/edgar/data/320193/annual-index.htm" id="documentsbutton">&nbsp;Documents</a></td>
  <td>Annual report</td>
  <td>%s</td>
</tr>
</table>
</body></html>`, filedAt, filedAt)
}

const indexPage = `<html><body>
<table class="tableFile" summary="Document Format Files">
<tr><th>Seq</th><th>Description</th><th>Document</th><th>Type</th></tr>
<tr><td>1</td><td>FORM 4</td><td><a href="/Archives/edgar/data/320193/xslF345X05/wk-form4.xml">wk-form4.xml</a></td><td>4</td></tr>
<tr><td>1</td><td>FORM 4</td><td><a href="/Archives/edgar/data/320193/wk-form4.xml">wk-form4.xml</a></td><td>4</td></tr>
</table>
</body></html>`

func form4XML(txDate string) string {
	return fmt.Sprintf(`<?xml version="1.0"?>
<ownershipDocument>
  <issuer>
    <issuerTradingSymbol>AAPL</issuerTradingSymbol>
  </issuer>
  <reportingOwner>
    <reportingOwnerId>
      <rptOwnerName>DOE JANE</rptOwnerName>
    </reportingOwnerId>
    <reportingOwnerRelationship>
      <isDirector>0</isDirector>
      <isOfficer>1</isOfficer>
      <isTenPercentOwner>0</isTenPercentOwner>
      <officerTitle>Chief Financial Officer</officerTitle>
    </reportingOwnerRelationship>
  </reportingOwner>
  <nonDerivativeTable>
    <nonDerivativeTransaction>
      <transactionDate><value>%s</value></transactionDate>
      <transactionCoding><transactionCode>P</transactionCode></transactionCoding>
      <transactionAmounts>
        <transactionShares><value>1500</value></transactionShares>
        <transactionPricePerShare><value>42.50</value></transactionPricePerShare>
      </transactionAmounts>
    </nonDerivativeTransaction>
    <nonDerivativeTransaction>
      <transactionDate><value>%s</value></transactionDate>
      <transactionCoding><transactionCode>S</transactionCode></transactionCoding>
      <transactionAmounts>
        <transactionShares><value>300</value></transactionShares>
        <transactionPricePerShare><value>43.10</value></transactionPricePerShare>
      </transactionAmounts>
    </nonDerivativeTransaction>
  </nonDerivativeTable>
</ownershipDocument>`, txDate, txDate)
}

func TestRecentTransactions(t *testing.T) {
	filedAt := time.Now().AddDate(0, 0, -3).Format("2006-01-02")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/cgi-bin/browse-edgar":
			if got := r.URL.Query().Get("type"); got != "4" {
				t.Errorf("type = %s, want 4", got)
			}
			fmt.Fprint(w, browsePage(filedAt))
		case r.URL.Path == "/Archives/edgar/data/320193/000032019324000069-index.htm":
			fmt.Fprint(w, indexPage)
		case r.URL.Path == "/Archives/edgar/data/320193/wk-form4.xml":
			fmt.Fprint(w, form4XML(filedAt))
		case r.URL.Path == "/Archives/edgar/data/320193/xslF345X05/wk-form4.xml":
			t.Error("rendered xslF345 document should not be fetched")
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := New(Options{
		BaseURL:       server.URL,
		UserAgent:     "stockwatch test test@example.com",
		RatePerSecond: 1000,
		Burst:         1000,
	}, zerolog.Nop())

	txns, err := client.RecentTransactions(context.Background(), "aapl", 30)
	if err != nil {
		t.Fatalf("RecentTransactions() = %v", err)
	}
	if len(txns) != 2 {
		t.Fatalf("got %d transactions, want 2", len(txns))
	}

	buy := txns[0]
	if buy.Owner != "DOE JANE" || buy.Role != "Chief Financial Officer" {
		t.Errorf("owner = %q role = %q", buy.Owner, buy.Role)
	}
	if buy.Code != "P" || !buy.IsBuy() {
		t.Errorf("Code = %q, want P", buy.Code)
	}
	if buy.Value != 1500*42.50 {
		t.Errorf("Value = %v, want %v", buy.Value, 1500*42.50)
	}
	if buy.AccessionNo != "0000320193-24-000069" {
		t.Errorf("AccessionNo = %q", buy.AccessionNo)
	}

	sell := txns[1]
	if sell.Code != "S" || !sell.IsSell() {
		t.Errorf("Code = %q, want S", sell.Code)
	}
}

func TestRecentTransactionsUnknownSymbol(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><p>No matching companies.</p></body></html>`)
	}))
	defer server.Close()

	client := New(Options{
		BaseURL:       server.URL,
		RatePerSecond: 1000,
		Burst:         1000,
	}, zerolog.Nop())

	_, err := client.RecentTransactions(context.Background(), "NOPE", 30)
	if !errors.Is(err, errors.ErrSymbolNotFound) {
		t.Fatalf("err = %v, want ErrSymbolNotFound", err)
	}
}

func TestRecentTransactionsOldFilingsFiltered(t *testing.T) {
	stale := time.Now().AddDate(0, 0, -90).Format("2006-01-02")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cgi-bin/browse-edgar" {
			t.Errorf("filing outside window should not be fetched: %s", r.URL.Path)
		}
		fmt.Fprint(w, browsePage(stale))
	}))
	defer server.Close()

	client := New(Options{
		BaseURL:       server.URL,
		RatePerSecond: 1000,
		Burst:         1000,
	}, zerolog.Nop())

	txns, err := client.RecentTransactions(context.Background(), "AAPL", 30)
	if err != nil {
		t.Fatalf("RecentTransactions() = %v", err)
	}
	if len(txns) != 0 {
		t.Errorf("got %d transactions, want 0", len(txns))
	}
}

func TestParseOwnershipDocument(t *testing.T) {
	tests := []struct {
		name     string
		xml      string
		wantErr  bool
		wantTxns int
		wantRole string
	}{
		{
			name:     "officer with title",
			xml:      form4XML("2024-06-03"),
			wantTxns: 2,
			wantRole: "Chief Financial Officer",
		},
		{
			name: "director fallback",
			xml: `<ownershipDocument>
			  <reportingOwner>
			    <reportingOwnerId><rptOwnerName>SMITH JOHN</rptOwnerName></reportingOwnerId>
			    <reportingOwnerRelationship><isDirector>1</isDirector></reportingOwnerRelationship>
			  </reportingOwner>
			  <nonDerivativeTable>
			    <nonDerivativeTransaction>
			      <transactionDate><value>2024-06-03</value></transactionDate>
			      <transactionCoding><transactionCode>P</transactionCode></transactionCoding>
			      <transactionAmounts>
			        <transactionShares><value>100</value></transactionShares>
			        <transactionPricePerShare><value>10</value></transactionPricePerShare>
			      </transactionAmounts>
			    </nonDerivativeTransaction>
			  </nonDerivativeTable>
			</ownershipDocument>`,
			wantTxns: 1,
			wantRole: "Director",
		},
		{
			name:    "missing owner",
			xml:     `<ownershipDocument><nonDerivativeTable></nonDerivativeTable></ownershipDocument>`,
			wantErr: true,
		},
		{
			name:    "not xml",
			xml:     `<<<garbage`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txns, err := parseOwnershipDocument("AAPL", []byte(tt.xml), "acc-1")
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseOwnershipDocument() = %v", err)
			}
			if len(txns) != tt.wantTxns {
				t.Fatalf("got %d transactions, want %d", len(txns), tt.wantTxns)
			}
			if txns[0].Role != tt.wantRole {
				t.Errorf("Role = %q, want %q", txns[0].Role, tt.wantRole)
			}
		})
	}
}

package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/cripto-factura/internal/application/billing"
	"github.com/jhoicas/cripto-factura/internal/application/dto"
	"github.com/jhoicas/cripto-factura/internal/domain"
	"github.com/jhoicas/cripto-factura/internal/domain/entity"
	"github.com/jhoicas/cripto-factura/internal/infrastructure/tokens"
	apphttp "github.com/jhoicas/cripto-factura/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/cripto-factura/pkg/jwt"
)

// ─── fakes ──────────────────────────────────────────────────────────────────

type fakeQuoter struct {
	got     dto.QuoteInvoiceRequest
	resolve dto.ResolveRequest
	err     error
}

func (q *fakeQuoter) Quote(_ context.Context, in dto.QuoteInvoiceRequest) (*dto.QuoteInvoiceResponse, error) {
	q.got = in
	if q.err != nil {
		return nil, q.err
	}
	return &dto.QuoteInvoiceResponse{Currencies: []string{"ETH"}}, nil
}

func (q *fakeQuoter) Resolve(_ context.Context, in dto.ResolveRequest) (*dto.ResolveResponse, error) {
	q.resolve = in
	if q.err != nil {
		return nil, q.err
	}
	return &dto.ResolveResponse{State: "working"}, nil
}

type fakeProducer struct {
	err error
}

func (p *fakeProducer) Produce(_ context.Context, in dto.PDFInvoiceRequest) ([]byte, entity.Metadata, error) {
	if p.err != nil {
		return nil, entity.Metadata{}, p.err
	}
	return []byte("%PDF-1.4"), entity.Metadata{Number: "AWE-20230131-0001"}, nil
}

type fakeFinder struct{}

func (fakeFinder) GetByNumber(_ context.Context, number string) (*entity.InvoiceRecord, error) {
	if number != "AWE-20230131-0001" {
		return nil, domain.ErrNotFound
	}
	return &entity.InvoiceRecord{
		ID:     "id-1",
		Number: number,
		Vendor: "Dominion R&D Corp.",
		Date:   time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC),
		Due:    time.Date(2023, 3, 2, 0, 0, 0, 0, time.UTC),
		Lines:  2,
		Totals: []entity.InvoiceTotal{{Symbol: "ETH", Address: "0xeth", Total: decimal.RequireFromString("0.16666667")}},
	}, nil
}

func newApp(deps apphttp.RouterDeps) *fiber.App {
	app := fiber.New()
	deps.JWTSecret = testJWTSecret
	deps.AppName = "cripto-factura"
	apphttp.Router(app, deps)
	return app
}

func call(t *testing.T, app *fiber.App, method, path, role, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", tokenForRole(t, role))
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// ─── rutas ──────────────────────────────────────────────────────────────────

func TestHealth(t *testing.T) {
	resp := call(t, newApp(apphttp.RouterDeps{Quote: &fakeQuoter{}}), http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]string](t, resp)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "cripto-factura", body["service"])
}

func TestQuote_RequiereToken(t *testing.T) {
	resp := call(t, newApp(apphttp.RouterDeps{Quote: &fakeQuoter{}}), http.MethodPost, "/api/invoices/quote", "", `{}`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestQuote_ParseaElCuerpo(t *testing.T) {
	q := &fakeQuoter{}
	body := `{"lines":[{"description":"Widget","price":"417.879","tax":1.05,"units":"2"}],
		"accounts":[{"symbol":"ETH","address":"0xeth"}],"page":1,"columns":["description","Total ETH"]}`

	resp := call(t, newApp(apphttp.RouterDeps{Quote: q}), http.MethodPost, "/api/invoices/quote", pkgjwt.RoleViewer, body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[dto.QuoteInvoiceResponse](t, resp)
	assert.Equal(t, []string{"ETH"}, out.Currencies)

	require.Len(t, q.got.Lines, 1)
	l := q.got.Lines[0]
	assert.Equal(t, "417.879", l.Price.String())
	require.NotNil(t, l.Tax)
	assert.Equal(t, "1.05", l.Tax.String())
	require.NotNil(t, l.Units)
	assert.Equal(t, "2", l.Units.String())
	require.NotNil(t, q.got.Page)
	assert.Equal(t, 1, *q.got.Page)
	assert.Equal(t, []string{"description", "Total ETH"}, q.got.Columns)
}

func TestQuote_CuerpoInvalido(t *testing.T) {
	resp := call(t, newApp(apphttp.RouterDeps{Quote: &fakeQuoter{}}), http.MethodPost, "/api/invoices/quote", pkgjwt.RoleViewer, `{"lines":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_BODY", decode[dto.ErrorResponse](t, resp).Code)
}

func TestQuote_MapeoDeErrores(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"moneda desconocida", &domain.UnknownCurrencyError{Name: "NOPE"}, http.StatusBadRequest, "UNKNOWN_CURRENCY"},
		{"cuenta duplicada", &domain.DuplicateAccountError{Symbol: "ETH"}, http.StatusBadRequest, "VALIDATION"},
		{"entrada inválida", domain.ErrInvalidInput, http.StatusBadRequest, "VALIDATION"},
		{"sin ratio", domain.ErrUnresolvableConversion, http.StatusUnprocessableEntity, "UNRESOLVABLE_CONVERSION"},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout, "TIMEOUT"},
		{"interno", errors.New("db caída"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newApp(apphttp.RouterDeps{Quote: &fakeQuoter{err: tc.err}})
			resp := call(t, app, http.MethodPost, "/api/invoices/quote", pkgjwt.RoleIssuer, `{"lines":[]}`)
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, tc.code, decode[dto.ErrorResponse](t, resp).Code)
		})
	}
}

func TestResolve_ConversionNoResoluble(t *testing.T) {
	err := &domain.UnresolvableConversionError{
		Unresolved: []string{"DOGE/USD"},
		Resolved:   []string{"BTC/USD", "ETH/USD"},
		Candidates: []string{"DOGE"},
	}
	app := newApp(apphttp.RouterDeps{Quote: &fakeQuoter{err: fmt.Errorf("resolver: %w", err)}})

	resp := call(t, app, http.MethodPost, "/api/conversions/resolve", pkgjwt.RoleViewer, `{"want":[{"from":"DOGE","to":"USD"}]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	out := decode[dto.UnresolvableResponse](t, resp)
	assert.Equal(t, "UNRESOLVABLE_CONVERSION", out.Code)
	assert.Equal(t, []string{"DOGE/USD"}, out.Unresolved)
	assert.Equal(t, []string{"DOGE"}, out.Candidates)
}

func TestResolve_OK(t *testing.T) {
	q := &fakeQuoter{}
	app := newApp(apphttp.RouterDeps{Quote: q})

	resp := call(t, app, http.MethodPost, "/api/conversions/resolve", pkgjwt.RoleViewer,
		`{"conversions":[{"from":"ETH","to":"USD","ratio":"1234.56"}],"want":[{"from":"BTC","to":"ETH"}],"strict":true}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "working", decode[dto.ResolveResponse](t, resp).State)
	assert.True(t, q.resolve.Strict)
	require.Len(t, q.resolve.Conversions, 1)
	assert.Equal(t, "1234.56", q.resolve.Conversions[0].Ratio.String())
}

func TestPDF_SoloEmisor(t *testing.T) {
	app := newApp(apphttp.RouterDeps{Quote: &fakeQuoter{}, PDF: &fakeProducer{}})
	body := `{"lines":[{"description":"Widget","price":"1"}],"vendor":{"name":"Dominion"}}`

	resp := call(t, app, http.MethodPost, "/api/invoices/pdf", pkgjwt.RoleViewer, body)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = call(t, app, http.MethodPost, "/api/invoices/pdf", pkgjwt.RoleIssuer, body)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="factura_AWE-20230131-0001.pdf"`, resp.Header.Get("Content-Disposition"))
	assert.Equal(t, "AWE-20230131-0001", resp.Header.Get("X-Invoice-Number"))
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(raw))
}

func TestPDF_SinEmisor(t *testing.T) {
	app := newApp(apphttp.RouterDeps{Quote: &fakeQuoter{}, PDF: &fakeProducer{}})
	resp := call(t, app, http.MethodPost, "/api/invoices/pdf", pkgjwt.RoleIssuer, `{"lines":[{"description":"Widget","price":"1"}]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", decode[dto.ErrorResponse](t, resp).Code)
}

func TestPDF_RutaDeshabilitada(t *testing.T) {
	app := newApp(apphttp.RouterDeps{Quote: &fakeQuoter{}})
	resp := call(t, app, http.MethodPost, "/api/invoices/pdf", pkgjwt.RoleIssuer, `{}`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetByNumber(t *testing.T) {
	app := newApp(apphttp.RouterDeps{Quote: &fakeQuoter{}, Invoices: fakeFinder{}})

	resp := call(t, app, http.MethodGet, "/api/invoices/AWE-20230131-0001", pkgjwt.RoleViewer, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[dto.InvoiceRecordResponse](t, resp)
	assert.Equal(t, "2023-01-31", out.Date)
	assert.Equal(t, "2023-03-02", out.Due)
	require.Len(t, out.Totals, 1)
	assert.Equal(t, "0.16666667", out.Totals[0].Total.String())

	resp = call(t, app, http.MethodGet, "/api/invoices/NOPE", pkgjwt.RoleViewer, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", decode[dto.ErrorResponse](t, resp).Code)
}

// ─── con el caso de uso real ────────────────────────────────────────────────

func TestQuote_CasoDeUsoReal(t *testing.T) {
	uc := billing.NewQuoteInvoiceUseCase(tokens.NewDefault(), nil, nil, billing.Settings{}, nil)
	app := newApp(apphttp.RouterDeps{Quote: uc})
	body := `{
		"lines": [
			{"description": "Widget", "price": "100", "currency": "USD"},
			{"description": "Gadget", "units": "2", "price": "0.05", "currency": "ETH"}
		],
		"accounts": [{"symbol": "eth", "address": "0xeth", "name": "Ethereum"}],
		"conversions": [
			{"from": "ETH", "to": "USD", "ratio": "1500"},
			{"from": "WETH", "to": "ETH", "ratio": "1"}
		]
	}`

	resp := call(t, app, http.MethodPost, "/api/invoices/quote", pkgjwt.RoleViewer, body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[dto.QuoteInvoiceResponse](t, resp)

	assert.Equal(t, []string{"ETH", "USDC", "WETH"}, out.Currencies)
	require.Len(t, out.Pages, 1)
	require.Len(t, out.Pages[0].Totals, 3)
	assert.Equal(t, "USDC", out.Pages[0].Totals[1].Symbol)
	assert.Equal(t, "250", out.Pages[0].Totals[1].Amount.String())
}

func TestQuote_CasoDeUsoReal_SinRatio(t *testing.T) {
	uc := billing.NewQuoteInvoiceUseCase(tokens.NewDefault(), nil, nil, billing.Settings{Strict: true}, nil)
	app := newApp(apphttp.RouterDeps{Quote: uc})
	body := `{"lines":[{"description":"Widget","price":"100","currency":"USD"}],
		"accounts":[{"symbol":"XRP","address":"rXRP"}]}`

	resp := call(t, app, http.MethodPost, "/api/invoices/quote", pkgjwt.RoleViewer, body)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	out := decode[dto.UnresolvableResponse](t, resp)
	assert.NotEmpty(t, out.Unresolved)
}

func TestQuote_CasoDeUsoReal_MonedaSinValor(t *testing.T) {
	uc := billing.NewQuoteInvoiceUseCase(tokens.NewDefault(), nil, nil, billing.Settings{Strict: true}, nil)
	app := newApp(apphttp.RouterDeps{Quote: uc})
	body := `{"lines":[{"description":"Widget","price":"10","currency":"USD"}],
		"currencies":["ZEENUS"],
		"accounts":[{"symbol":"ZEENUS","address":"0xz"}],
		"conversions":[
			{"from":"ETH","to":"USD","ratio":"1500"},
			{"from":"ZEENUS","to":"ETH","ratio":"0"}
		]}`

	resp := call(t, app, http.MethodPost, "/api/invoices/quote", pkgjwt.RoleViewer, body)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	out := decode[dto.UnresolvableResponse](t, resp)
	assert.Equal(t, "WORTHLESS_CURRENCY", out.Code)
	assert.Empty(t, out.Unresolved)
	assert.Equal(t, []string{"USDC/ZEENUS"}, out.Worthless)
}

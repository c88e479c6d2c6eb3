package payments

import (
	"context"
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type RobokassaConfig struct {
	MerchantLogin string
	Password1     string // подпись ссылки на оплату
	Password2     string // подпись Result URL и OpStateExt
	BaseURL       string // https://auth.robokassa.ru/Merchant/Index.aspx
	StatusURL     string // .../WebService/Service.asmx/OpStateExt
	TestMode      bool
	HTTPClient    *http.Client
}

// RobokassaProvider - альтернативный провайдер.
// Номер счёта (InvId) используется как session id.
type RobokassaProvider struct {
	cfg    RobokassaConfig
	client *http.Client
}

func NewRobokassaProvider(cfg RobokassaConfig) *RobokassaProvider {
	c := cfg.HTTPClient
	if c == nil {
		c = &http.Client{Timeout: 15 * time.Second}
	}
	return &RobokassaProvider{cfg: cfg, client: c}
}

func (r *RobokassaProvider) Name() string { return "robokassa" }

// CreateCheckoutSession формирует подписанную ссылку на оплату
func (r *RobokassaProvider) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	invID, err := newInvoiceID()
	if err != nil {
		return nil, fmt.Errorf("robokassa: invoice id: %w", err)
	}

	outSum := fmt.Sprintf("%.2f", req.Amount)
	currency := strings.ToUpper(req.Currency)

	params := url.Values{}
	params.Set("MerchantLogin", r.cfg.MerchantLogin)
	params.Set("OutSum", outSum)
	params.Set("InvId", invID)
	params.Set("Description", req.ProductName)
	if currency != "" {
		params.Set("OutSumCurrency", currency)
	}
	if req.CustomerEmail != "" {
		params.Set("Email", req.CustomerEmail)
	}
	if r.cfg.TestMode {
		params.Set("IsTest", "1")
	}
	params.Set("SignatureValue", r.paymentSignature(outSum, invID, currency))

	return &CheckoutSession{
		SessionID: invID,
		URL:       r.cfg.BaseURL + "?" + params.Encode(),
	}, nil
}

// paymentSignature - MD5(login:OutSum:InvId[:OutSumCurrency]:Password1)
func (r *RobokassaProvider) paymentSignature(outSum, invID, currency string) string {
	parts := []string{r.cfg.MerchantLogin, outSum, invID}
	if currency != "" {
		parts = append(parts, currency)
	}
	parts = append(parts, r.cfg.Password1)
	return md5Upper(strings.Join(parts, ":"))
}

// opStateResponse - ответ OpStateExt
type opStateResponse struct {
	XMLName xml.Name `xml:"OperationStateResponse"`
	Result  struct {
		Code        int    `xml:"Code"`
		Description string `xml:"Description"`
	} `xml:"Result"`
	State struct {
		Code int `xml:"Code"`
	} `xml:"State"`
	Info struct {
		OutSum string `xml:"OutSum"`
	} `xml:"Info"`
}

// Коды состояния OpStateExt
const (
	robokassaStateInitiated = 5
	robokassaStateCancelled = 10
	robokassaStateRefunded  = 60
	robokassaStateSuccess   = 100
)

func (r *RobokassaProvider) GetCheckoutStatus(ctx context.Context, sessionID string) (*CheckoutStatus, error) {
	q := url.Values{}
	q.Set("MerchantLogin", r.cfg.MerchantLogin)
	q.Set("InvoiceID", sessionID)
	q.Set("Signature", md5Upper(r.cfg.MerchantLogin+":"+sessionID+":"+r.cfg.Password2))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.cfg.StatusURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("robokassa: status request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("robokassa: status request: http %d", resp.StatusCode)
	}

	var state opStateResponse
	if err := xml.NewDecoder(resp.Body).Decode(&state); err != nil {
		return nil, fmt.Errorf("robokassa: decode status: %w", err)
	}
	if state.Result.Code != 0 {
		return nil, fmt.Errorf("robokassa: status error %d: %s", state.Result.Code, state.Result.Description)
	}

	out := &CheckoutStatus{SessionID: sessionID, Status: SessionOpen, PaymentStatus: PaymentUnpaid}
	switch state.State.Code {
	case robokassaStateSuccess:
		out.Status, out.PaymentStatus = SessionComplete, PaymentPaid
	case robokassaStateCancelled:
		out.Status = SessionExpired
	case robokassaStateRefunded:
		out.Status, out.PaymentStatus = SessionComplete, PaymentRefunded
	}
	if sum, err := strconv.ParseFloat(state.Info.OutSum, 64); err == nil {
		out.AmountTotal = sum
	}
	return out, nil
}

// ParseWebhook разбирает Result URL (form-urlencoded: OutSum, InvId, SignatureValue).
// Подпись приходит в теле, параметр signature не используется.
func (r *RobokassaProvider) ParseWebhook(body []byte, _ string) (*WebhookEvent, error) {
	form, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	outSum, invID, sig := form.Get("OutSum"), form.Get("InvId"), form.Get("SignatureValue")
	if outSum == "" || invID == "" || sig == "" {
		return nil, fmt.Errorf("%w: missing OutSum/InvId/SignatureValue", ErrMalformedPayload)
	}
	if !r.VerifyResultSignature(outSum, invID, sig) {
		return nil, ErrInvalidSignature
	}

	return &WebhookEvent{
		EventID:       "robokassa:" + invID,
		Type:          "result",
		SessionID:     invID,
		PaymentStatus: PaymentPaid,
		Ack:           "OK" + invID,
	}, nil
}

// VerifyResultSignature - MD5(OutSum:InvId:Password2), регистр не важен
func (r *RobokassaProvider) VerifyResultSignature(outSum, invID, received string) bool {
	expected := md5Upper(outSum + ":" + invID + ":" + r.cfg.Password2)
	return strings.EqualFold(expected, received)
}

func md5Upper(s string) string {
	hash := md5.Sum([]byte(s))
	return strings.ToUpper(hex.EncodeToString(hash[:]))
}

// newInvoiceID - Robokassa принимает только целый InvId
func newInvoiceID() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1<<31-1))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+1, 10), nil
}

package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/International-Combat-Archery-Alliance/email"
	"github.com/Rhymond/go-money"
	"github.com/team-welcome/dandiya-registration/registration"
)

type Environment string

const (
	LOCAL Environment = "local"
	PROD  Environment = "prod"
)

func ParseEnvironment(s string) (Environment, error) {
	switch Environment(s) {
	case LOCAL:
		return LOCAL, nil
	case PROD:
		return PROD, nil
	default:
		return Environment(""), fmt.Errorf("unknown environment: %q", s)
	}
}

type DB interface {
	registration.Repository
}

// MerchantConfig is the fixed UPI payee every payment link points at.
type MerchantConfig struct {
	VPA  string
	Name string
}

type API struct {
	db            DB
	logger        *slog.Logger
	env           Environment
	emailSender   email.Sender
	merchant      MerchantConfig
	unitPrice     *money.Money
	operatorToken string
}

func NewAPI(db DB, logger *slog.Logger, env Environment, emailSender email.Sender, merchant MerchantConfig, unitPrice *money.Money, operatorToken string) *API {
	return &API{
		db:            db,
		logger:        logger,
		env:           env,
		emailSender:   emailSender,
		merchant:      merchant,
		unitPrice:     unitPrice,
		operatorToken: operatorToken,
	}
}

// Handler wires the routes behind the middleware chain. The payment
// endpoints accept only POST (plus the CORS preflight OPTIONS) and
// carry no authentication; the operator endpoints additionally require
// the operator bearer token.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /payments/v1/process", a.processPayment)
	mux.HandleFunc("POST /payments/v1/status", a.checkPaymentStatus)
	mux.HandleFunc("POST /payments/v1/confirm", a.confirmPaymentManually)
	mux.HandleFunc("POST /registrations/v1/notify", a.sendConfirmationEmail)
	mux.HandleFunc("GET /registrations/v1", a.listRegistrations)

	return useMiddlewares(mux,
		a.requestIdMiddleware(),
		a.loggingMiddleware(),
		a.corsMiddleware(),
	)
}

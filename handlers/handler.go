package handlers

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"storefront/config"
	"storefront/jwt"
	"storefront/mailer"
	"storefront/oauth"
	"storefront/payments"
	"storefront/queue"
	"storefront/repository"
)

// Deps is everything the HTTP handlers need. Nil Mailer and Events fall back to no-ops.
type Deps struct {
	Config    config.Config
	DB        *gorm.DB
	Tokens    *jwt.Manager
	States    *oauth.StateSigner
	Providers []oauth.Provider
	Paystack  *payments.Client
	Mailer    mailer.Mailer
	Events    queue.Publisher
	Log       *zap.Logger
}

type Handler struct {
	cfg       config.Config
	db        *gorm.DB
	products  *repository.ProductRepository
	orders    *repository.OrderRepository
	users     *repository.UserRepository
	settings  *repository.SettingRepository
	tokens    *jwt.Manager
	states    *oauth.StateSigner
	providers map[string]oauth.Provider
	paystack  *payments.Client
	mail      mailer.Mailer
	events    queue.Publisher
	log       *zap.Logger
	now       func() time.Time
}

func New(d Deps) *Handler {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	mail := d.Mailer
	if mail == nil {
		mail = mailer.NewLogMailer(log)
	}
	events := d.Events
	if events == nil {
		events = queue.NewNoop()
	}
	states := d.States
	if states == nil {
		states = oauth.NewStateSigner(d.Config.Auth.JWTSecret)
	}

	providers := make(map[string]oauth.Provider, len(d.Providers))
	for _, p := range d.Providers {
		providers[p.Name()] = p
	}

	return &Handler{
		cfg:       d.Config,
		db:        d.DB,
		products:  repository.NewProductRepository(d.DB),
		orders:    repository.NewOrderRepository(d.DB),
		users:     repository.NewUserRepository(d.DB),
		settings:  repository.NewSettingRepository(d.DB),
		tokens:    d.Tokens,
		states:    states,
		providers: providers,
		paystack:  d.Paystack,
		mail:      mail,
		events:    events,
		log:       log,
		now:       time.Now,
	}
}

// Users exposes the user repository so the auth middleware can share it.
func (h *Handler) Users() *repository.UserRepository {
	return h.users
}

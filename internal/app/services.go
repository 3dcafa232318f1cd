package app

import (
	"github.com/nats-io/nats.go"
	"go.uber.org/fx"

	"github.com/Alijeyrad/staylink_backend/config"
	"github.com/Alijeyrad/staylink_backend/internal/service/partner"
	"github.com/Alijeyrad/staylink_backend/internal/service/settlement"
	"github.com/Alijeyrad/staylink_backend/internal/store"
	pasetotoken "github.com/Alijeyrad/staylink_backend/pkg/paseto"
	redispkg "github.com/Alijeyrad/staylink_backend/pkg/redis"
	"github.com/Alijeyrad/staylink_backend/pkg/stripepay"
)

// ServiceModule provides all application service dependencies.
var ServiceModule = fx.Module("services",
	fx.Provide(
		ProvideSettlementService,
		ProvidePartnerService,
		ProvidePasetoManager,
	),
)

func ProvideSettlementService(
	st *store.Store,
	gw *stripepay.Client,
	locker *redispkg.Locker,
	nc *nats.Conn,
	cfg *config.Config,
) settlement.Service {
	// A nil *nats.Conn must not become a non-nil interface.
	var pub settlement.Publisher
	if nc != nil {
		pub = nc
	}
	return settlement.New(st, gw, locker, pub, cfg)
}

func ProvidePartnerService(st *store.Store) partner.Service {
	return partner.New(st)
}

func ProvidePasetoManager(cfg *config.Config) (*pasetotoken.Manager, error) {
	return pasetotoken.NewPasetoManager(cfg)
}

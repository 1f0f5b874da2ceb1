package meta

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/metalake/ads-core/internal/graph"
)

// =============================================================================
// SERVICE
// Shared extraction entry points over one graph client.
// =============================================================================

// Service extracts Meta Ads datasets for one run.
type Service struct {
	client *graph.Client
	media  MediaStore
}

// NewService wires a graph client and an optional media store. A nil media
// store disables asset acquisition; the creatives handler then emits
// metadata rows only.
func NewService(client *graph.Client, media MediaStore) *Service {
	return &Service{client: client, media: media}
}

var adAccountFields = []string{"id", "name", "currency", "account_status", "business_country_code"}

// FetchAdAccounts lists the ad accounts owned by a business. A degraded or
// exhausted call yields a shorter (possibly empty) roster rather than an
// error, per the client contract.
func (s *Service) FetchAdAccounts(ctx context.Context, businessID string) ([]AdAccount, error) {
	res, err := s.client.Call(ctx, graph.CallSpec{
		ObjectID: businessID,
		Edge:     "owned_ad_accounts",
		Fields:   adAccountFields,
	})
	if err != nil {
		return nil, err
	}
	if !res.Complete {
		log.Warn().Str("business_id", businessID).Str("reason", res.Reason).
			Msg("ad account listing incomplete")
	}

	accounts := make([]AdAccount, 0, len(res.Records))
	for _, rec := range res.Records {
		accounts = append(accounts, AdAccount{
			ID:          toString(rec["id"]),
			Name:        toString(rec["name"]),
			Currency:    toString(rec["currency"]),
			Status:      toString(rec["account_status"]),
			CountryCode: toString(rec["business_country_code"]),
		})
	}
	log.Info().Str("business_id", businessID).Int("count", len(accounts)).Msg("ad accounts retrieved")
	return accounts, nil
}

// AccountsTable renders the roster as the accounts dataset.
func AccountsTable(accounts []AdAccount) *Table {
	t := NewTable("accounts")
	for _, acc := range accounts {
		t.Append(Row{
			"account_id":            acc.ID,
			"account_name":          acc.Name,
			"currency":              acc.Currency,
			"account_status":        acc.Status,
			"business_country_code": acc.CountryCode,
		})
	}
	return t
}

// VerifyToken resolves the access token and probes the identity endpoint.
// Used by the token health check, not by extraction.
func (s *Service) VerifyToken(ctx context.Context) (id, name string, err error) {
	rec, err := s.client.GetObject(ctx, "me", []string{"id", "name"})
	if err != nil {
		return "", "", err
	}
	return toString(rec["id"]), toString(rec["name"]), nil
}

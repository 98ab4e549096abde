package inventory

import (
	"context"

	"oci-compliance-report/internal/collect"
	"oci-compliance-report/internal/scope"
)

// UnknownVersion stands in for a database version no database home reports.
const UnknownVersion = "-"

// DatabaseAggregator lists DB systems and joins each with the version of its database home.
type DatabaseAggregator struct {
	src DatabaseSource
}

func NewDatabaseAggregator(src DatabaseSource) *DatabaseAggregator {
	return &DatabaseAggregator{src: src}
}

func (a *DatabaseAggregator) Kind() Kind {
	return KindDatabase
}

func (a *DatabaseAggregator) Collect(ctx context.Context, sc scope.Scope, s Settings) ([]Record, error) {
	systems, err := listAll(ctx, s, KindDatabase, func(ctx context.Context, opts collect.PageOptions) (*collect.Page[DBSystem], error) {
		return a.src.ListDBSystems(ctx, sc.ID, opts)
	})
	if err != nil {
		return nil, collectionFailed(s, sc, KindDatabase, err)
	}
	if len(systems) == 0 {
		return []Record{}, nil
	}

	homes, homesErr := listAll(ctx, s, KindDatabase, func(ctx context.Context, opts collect.PageOptions) (*collect.Page[DBHome], error) {
		return a.src.ListDBHomes(ctx, sc.ID, opts)
	})
	versions := make(map[string]string, len(homes))
	for _, h := range homes {
		if _, ok := versions[h.DBSystemID]; !ok && h.DBVersion != "" {
			versions[h.DBSystemID] = h.DBVersion
		}
	}

	out := make([]Record, 0, len(systems))
	for _, db := range systems {
		db.DBVersion = UnknownVersion
		if homesErr != nil {
			db.Enrichment = degrade(s, sc.ID, KindDatabase, db.SystemID, "list db homes", homesErr)
		} else if v, ok := versions[db.SystemID]; ok {
			db.DBVersion = v
		}
		out = append(out, db)
	}
	return out, nil
}

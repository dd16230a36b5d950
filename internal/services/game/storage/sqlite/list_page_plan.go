package sqlite

import (
	"fmt"

	"github.com/louisbranch/usurper.games/internal/services/game/storage"
)

// listPageSQLPlan carries the assembled SQL fragments for one keyset page
// query plus the parallel count query. The count clauses exclude the cursor
// so TotalCount covers the whole filtered set.
type listPageSQLPlan struct {
	whereClause      string
	params           []any
	orderClause      string
	limitClause      string
	countWhereClause string
	countParams      []any
}

func buildListEventsPageSQLPlan(req storage.ListEventsPageRequest) listPageSQLPlan {
	whereClause := "realm_id = ?"
	params := []any{req.RealmID}

	// The cursor direction determines comparison operators; sort order is applied separately.
	if req.CursorSeq > 0 {
		if req.CursorDir == "bwd" {
			whereClause += " AND seq < ?"
		} else {
			whereClause += " AND seq > ?"
		}
		params = append(params, req.CursorSeq)
	}

	if req.FilterClause != "" {
		whereClause += " AND " + req.FilterClause
		params = append(params, req.FilterParams...)
	}

	orderClause := "ORDER BY seq ASC"
	if req.Descending {
		orderClause = "ORDER BY seq DESC"
	}
	// Reverse sort temporarily for previous-page queries so near-edge rows are fetched first.
	if req.CursorReverse {
		if req.Descending {
			orderClause = "ORDER BY seq ASC"
		} else {
			orderClause = "ORDER BY seq DESC"
		}
	}

	countWhereClause := "realm_id = ?"
	countParams := []any{req.RealmID}
	if req.FilterClause != "" {
		countWhereClause += " AND " + req.FilterClause
		countParams = append(countParams, req.FilterParams...)
	}

	return listPageSQLPlan{
		whereClause:      whereClause,
		params:           params,
		orderClause:      orderClause,
		limitClause:      fmt.Sprintf("LIMIT %d", req.PageSize+1),
		countWhereClause: countWhereClause,
		countParams:      countParams,
	}
}

func buildListRewardsPageSQLPlan(req storage.ListRewardsPageRequest) listPageSQLPlan {
	whereClause := "realm_id = ?"
	params := []any{req.RealmID}

	if req.CursorPos > 0 {
		if req.CursorDir == "bwd" {
			whereClause += " AND position < ?"
		} else {
			whereClause += " AND position > ?"
		}
		params = append(params, req.CursorPos)
	}

	if req.FilterClause != "" {
		whereClause += " AND " + req.FilterClause
		params = append(params, req.FilterParams...)
	}

	orderClause := "ORDER BY position ASC"
	if req.Descending {
		orderClause = "ORDER BY position DESC"
	}
	if req.CursorReverse {
		if req.Descending {
			orderClause = "ORDER BY position ASC"
		} else {
			orderClause = "ORDER BY position DESC"
		}
	}

	countWhereClause := "realm_id = ?"
	countParams := []any{req.RealmID}
	if req.FilterClause != "" {
		countWhereClause += " AND " + req.FilterClause
		countParams = append(countParams, req.FilterParams...)
	}

	return listPageSQLPlan{
		whereClause:      whereClause,
		params:           params,
		orderClause:      orderClause,
		limitClause:      fmt.Sprintf("LIMIT %d", req.PageSize+1),
		countWhereClause: countWhereClause,
		countParams:      countParams,
	}
}

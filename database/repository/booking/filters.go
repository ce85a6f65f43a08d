package bookingRepo

import (
	"time"

	"bookwell/models"

	"go.mongodb.org/mongo-driver/bson"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// activeStatusFilter matches any status that occupies a slot.
func activeStatusFilter() bson.M {
	return bson.M{"$in": models.ActiveStatuses}
}

// listFilter translates a BookingFilter into a Mongo query.
func listFilter(f BookingFilter) bson.M {
	filter := bson.M{}
	if f.CustomerID != "" {
		filter["customerId"] = f.CustomerID
	}
	if f.ProviderID != "" {
		filter["providerId"] = f.ProviderID
	}
	if f.ShopID != "" {
		filter["shopId"] = f.ShopID
	}
	if len(f.Statuses) > 0 {
		filter["status"] = bson.M{"$in": f.Statuses}
	}
	if f.From != "" || f.To != "" {
		dateRange := bson.M{}
		if f.From != "" {
			dateRange["$gte"] = f.From
		}
		if f.To != "" {
			dateRange["$lte"] = f.To
		}
		filter["date"] = dateRange
	}
	if f.Owner != nil {
		scope := bson.A{bson.M{"providerId": f.Owner.OwnerID}}
		if f.Owner.ShopID != "" {
			scope = append(scope,
				bson.M{"shopId": f.Owner.ShopID},
				bson.M{"providerShopId": f.Owner.ShopID})
		}
		filter["$or"] = scope
	}
	return filter
}

// pagination clamps page and size and returns skip and limit.
func pagination(page, size int) (skip, limit int64) {
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	if page <= 0 {
		page = 1
	}
	return int64((page - 1) * size), int64(size)
}

// unassignedShopFilter matches shop-based requests still held by the shop owner.
func unassignedShopFilter(createdBefore time.Time) bson.M {
	return bson.M{
		"status":       models.StatusPending,
		"shopId":       bson.M{"$exists": true, "$ne": ""},
		"providerKind": models.KindShopOwner,
		"createdAt":    bson.M{"$lt": createdBefore},
	}
}

// ledgerID names the lock document for a capacity key and date.
func ledgerID(slotKey, date string) string {
	return slotKey + "|" + date
}

package entity

import (
	"fmt"
	"strconv"
)

// VolumeKey selects which volume column a rankings table displays.
type VolumeKey string

const (
	Volume1Day    VolumeKey = "1day"
	Volume7Day    VolumeKey = "7day"
	Volume30Day   VolumeKey = "30day"
	VolumeAllTime VolumeKey = "allTime"
)

// SortBy is the collection ranking order accepted by the data API.
type SortBy string

const (
	SortBy1DayVolume    SortBy = "1DayVolume"
	SortBy7DayVolume    SortBy = "7DayVolume"
	SortBy30DayVolume   SortBy = "30DayVolume"
	SortByAllTimeVolume SortBy = "allTimeVolume"
)

// DefaultSortBy is used when a request does not name a valid sort key.
const DefaultSortBy = SortBy1DayVolume

// SortByOptions lists the sort keys in dropdown order.
var SortByOptions = []SortBy{SortBy1DayVolume, SortBy7DayVolume, SortBy30DayVolume, SortByAllTimeVolume}

// ParseSortBy returns the sort key named by s.
func ParseSortBy(s string) (SortBy, error) {
	switch SortBy(s) {
	case SortBy1DayVolume, SortBy7DayVolume, SortBy30DayVolume, SortByAllTimeVolume:
		return SortBy(s), nil
	default:
		return "", fmt.Errorf("unknown sortBy %q", s)
	}
}

// VolumeKey returns the volume column matching the sort window.
func (s SortBy) VolumeKey() VolumeKey {
	switch s {
	case SortBy1DayVolume:
		return Volume1Day
	case SortBy7DayVolume:
		return Volume7Day
	case SortBy30DayVolume:
		return Volume30Day
	case SortByAllTimeVolume:
		return VolumeAllTime
	default:
		panic(fmt.Sprintf("entity: unhandled SortBy %q", string(s)))
	}
}

// Label is the human-readable dropdown text.
func (s SortBy) Label() string {
	switch s {
	case SortBy1DayVolume:
		return "24h"
	case SortBy7DayVolume:
		return "7d"
	case SortBy30DayVolume:
		return "30d"
	case SortByAllTimeVolume:
		return "All Time"
	default:
		panic(fmt.Sprintf("entity: unhandled SortBy %q", string(s)))
	}
}

// MintPeriod is the trending-mints look-back window.
type MintPeriod string

const (
	MintPeriod5m  MintPeriod = "5m"
	MintPeriod10m MintPeriod = "10m"
	MintPeriod30m MintPeriod = "30m"
	MintPeriod1h  MintPeriod = "1h"
	MintPeriod2h  MintPeriod = "2h"
	MintPeriod6h  MintPeriod = "6h"
	MintPeriod24h MintPeriod = "24h"
)

// DefaultMintPeriod is used when a request does not name a valid period.
const DefaultMintPeriod = MintPeriod24h

// MintPeriodOptions lists the periods in dropdown order.
var MintPeriodOptions = []MintPeriod{
	MintPeriod5m, MintPeriod10m, MintPeriod30m, MintPeriod1h, MintPeriod2h, MintPeriod6h, MintPeriod24h,
}

// ParseMintPeriod returns the period named by s.
func ParseMintPeriod(s string) (MintPeriod, error) {
	switch MintPeriod(s) {
	case MintPeriod5m, MintPeriod10m, MintPeriod30m, MintPeriod1h, MintPeriod2h, MintPeriod6h, MintPeriod24h:
		return MintPeriod(s), nil
	default:
		return "", fmt.Errorf("unknown period %q", s)
	}
}

// VolumeKey returns the volume column shown next to mint rankings. Every period fits in a day.
func (p MintPeriod) VolumeKey() VolumeKey {
	switch p {
	case MintPeriod5m, MintPeriod10m, MintPeriod30m, MintPeriod1h, MintPeriod2h, MintPeriod6h, MintPeriod24h:
		return Volume1Day
	default:
		panic(fmt.Sprintf("entity: unhandled MintPeriod %q", string(p)))
	}
}

// MintType filters trending mints by price.
type MintType string

const (
	MintTypeAny  MintType = "any"
	MintTypeFree MintType = "free"
	MintTypePaid MintType = "paid"
)

// ParseMintType returns the mint type named by s.
func ParseMintType(s string) (MintType, error) {
	switch MintType(s) {
	case MintTypeAny, MintTypeFree, MintTypePaid:
		return MintType(s), nil
	default:
		return "", fmt.Errorf("unknown mint type %q", s)
	}
}

// RankingKind tells which data API endpoint a query targets.
type RankingKind string

const (
	RankingCollections RankingKind = "collections"
	RankingMints       RankingKind = "mints"
)

// ParseRankingKind returns the kind named by s.
func ParseRankingKind(s string) (RankingKind, error) {
	switch RankingKind(s) {
	case RankingCollections, RankingMints:
		return RankingKind(s), nil
	default:
		return "", fmt.Errorf("unknown ranking kind %q", s)
	}
}

const (
	collectionsEndpoint   = "/collections/v7"
	trendingMintsEndpoint = "/collections/trending-mints/v1"
)

// QueryParam is one serialized query string pair.
type QueryParam struct {
	Key   string
	Value string
}

// RankingQuery is a parameterized request for a sorted list of collections or mints.
type RankingQuery struct {
	Kind               RankingKind
	Limit              int
	SortBy             SortBy
	Period             MintPeriod
	MintType           MintType
	CollectionsSetID   string
	NormalizeRoyalties bool
	Continuation       string
}

// Validate checks the fields the target endpoint requires.
func (q RankingQuery) Validate() error {
	if q.Limit <= 0 {
		return fmt.Errorf("limit must be positive, got %d", q.Limit)
	}
	switch q.Kind {
	case RankingCollections:
		if q.SortBy != "" {
			if _, err := ParseSortBy(string(q.SortBy)); err != nil {
				return err
			}
		}
	case RankingMints:
		if _, err := ParseMintPeriod(string(q.Period)); err != nil {
			return err
		}
		if _, err := ParseMintType(string(q.MintType)); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown ranking kind %q", string(q.Kind))
	}
	return nil
}

// Endpoint returns the data API path for the query's kind.
func (q RankingQuery) Endpoint() string {
	if q.Kind == RankingMints {
		return trendingMintsEndpoint
	}
	return collectionsEndpoint
}

// Params serializes the query in a stable order. Empty optional fields are omitted.
func (q RankingQuery) Params() []QueryParam {
	params := []QueryParam{{Key: "limit", Value: strconv.Itoa(q.Limit)}}

	switch q.Kind {
	case RankingMints:
		params = append(params,
			QueryParam{Key: "period", Value: string(q.Period)},
			QueryParam{Key: "type", Value: string(q.MintType)},
		)
	default:
		if q.SortBy != "" {
			params = append(params, QueryParam{Key: "sortBy", Value: string(q.SortBy)})
		}
		if q.CollectionsSetID != "" {
			params = append(params, QueryParam{Key: "collectionsSetId", Value: q.CollectionsSetID})
		}
		params = append(params, QueryParam{Key: "normalizeRoyalties", Value: strconv.FormatBool(q.NormalizeRoyalties)})
		if q.Continuation != "" {
			params = append(params, QueryParam{Key: "continuation", Value: q.Continuation})
		}
	}

	return params
}

// DatasetTag names one logical query inside a prefetch batch.
type DatasetTag string

const (
	DatasetTrendingCollections DatasetTag = "trendingCollections"
	DatasetFeaturedCollections DatasetTag = "featuredCollections"
	DatasetTrendingMints       DatasetTag = "trendingMints"
)

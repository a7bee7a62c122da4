package service

import (
	"cmp"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/user/moviescroll/internal/model"
)

// 每种观看方式最多展示的平台数
const maxProvidersPerAccess = 2

var offerAccess = map[string]model.ProviderAccess{
	"flatrate": model.AccessSubscription,
	"free":     model.AccessFree,
	"rent":     model.AccessRent,
	"buy":      model.AccessBuy,
}

var offerPriority = map[string]int{
	"flatrate": 0,
	"free":     1,
	"rent":     2,
	"buy":      3,
}

var accessPriority = map[model.ProviderAccess]int{
	model.AccessSubscription: 0,
	model.AccessFree:         1,
	model.AccessRent:         2,
	model.AccessBuy:          3,
}

// 分组输出顺序
var accessOrder = []model.ProviderAccess{
	model.AccessSubscription,
	model.AccessFree,
	model.AccessRent,
	model.AccessBuy,
}

type providerCandidate struct {
	id              string
	name            string
	access          model.ProviderAccess
	accessPriority  int
	offerPriority   int
	displayPriority float64 // 缺失为 +Inf
}

// ResolveProviders 把上架信息整理为按观看方式分组的平台列表
//
// 同一个平台只保留一条（观看方式优先，其次 display_priority、offer 类型、名称），
// 每组按 display_priority、offer 类型、名称排序后取前两个。
func ResolveProviders(offers []model.Offer) []model.StreamingProvider {
	best := make(map[string]providerCandidate)
	for _, offer := range offers {
		c, ok := newCandidate(offer)
		if !ok {
			continue
		}
		if existing, found := best[c.id]; !found || preferred(c, existing) {
			best[c.id] = c
		}
	}

	grouped := make(map[model.ProviderAccess][]providerCandidate)
	for _, c := range best {
		grouped[c.access] = append(grouped[c.access], c)
	}

	result := make([]model.StreamingProvider, 0)
	for _, access := range accessOrder {
		list := grouped[access]
		slices.SortFunc(list, compareCandidates)
		if len(list) > maxProvidersPerAccess {
			list = list[:maxProvidersPerAccess]
		}
		for _, c := range list {
			result = append(result, model.StreamingProvider{ID: c.id, Name: c.name, Access: c.access})
		}
	}
	return result
}

func newCandidate(offer model.Offer) (providerCandidate, bool) {
	if offer.OfferType == nil || offer.Provider == nil {
		return providerCandidate{}, false
	}
	access, ok := offerAccess[*offer.OfferType]
	if !ok {
		return providerCandidate{}, false
	}

	p := offer.Provider
	if p.ProviderID == 0 || p.ProviderName == nil || *p.ProviderName == "" {
		return providerCandidate{}, false
	}

	display := math.Inf(1)
	if p.DisplayPriority != nil {
		display = float64(*p.DisplayPriority)
	}

	return providerCandidate{
		id:              strconv.FormatInt(p.ProviderID, 10),
		name:            *p.ProviderName,
		access:          access,
		accessPriority:  accessPriority[access],
		offerPriority:   offerPriority[*offer.OfferType],
		displayPriority: display,
	}, true
}

func preferred(candidate, existing providerCandidate) bool {
	if candidate.accessPriority != existing.accessPriority {
		return candidate.accessPriority < existing.accessPriority
	}
	return compareCandidates(candidate, existing) < 0
}

func compareCandidates(a, b providerCandidate) int {
	if c := cmp.Compare(a.displayPriority, b.displayPriority); c != 0 {
		return c
	}
	if c := cmp.Compare(a.offerPriority, b.offerPriority); c != 0 {
		return c
	}
	return strings.Compare(a.name, b.name)
}

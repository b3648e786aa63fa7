package domain

import "time"

// Phase is the search phase a decision was produced in.
type Phase string

const (
	PhaseStrict Phase = "STRICT"
	PhaseRescue Phase = "RESCUE"
)

// ReasonCode explains a decision outcome. Every decision carries exactly
// one top-level reason; guard rejections additionally carry a sub-reason.
type ReasonCode string

const (
	ReasonOK ReasonCode = "OK"

	// Terminal failure reasons for a whole search call.
	ReasonInsufficientData          ReasonCode = "INSUFFICIENT_DATA"
	ReasonCoreNotDetected           ReasonCode = "CORE_NOT_DETECTED"
	ReasonCoreNoCandidates          ReasonCode = "CORE_NO_CANDIDATES"
	ReasonRejectedByGuards          ReasonCode = "REJECTED_BY_GUARDS"
	ReasonBrandRequiredNotFound     ReasonCode = "BRAND_REQUIRED_NOT_FOUND"
	ReasonOriginRequiredNotFound    ReasonCode = "ORIGIN_REQUIRED_NOT_FOUND"
	ReasonUnitMismatchAllRejected   ReasonCode = "UNIT_MISMATCH_ALL_REJECTED"
	ReasonPackOutlierAllRejected    ReasonCode = "PACK_OUTLIER_ALL_REJECTED"
	ReasonNoCandidatesOverThreshold ReasonCode = "NO_CANDIDATES_OVER_THRESHOLD"
	ReasonSupplierMinNotMet         ReasonCode = "SUPPLIER_MIN_NOT_MET"
	ReasonError                     ReasonCode = "ERROR"

	// Per-guard sub-reasons accumulated as diagnostics.
	ReasonCoreMismatch       ReasonCode = "CORE_MISMATCH"
	ReasonCategoryMismatch   ReasonCode = "CATEGORY_MISMATCH"
	ReasonAttributeConflict  ReasonCode = "ATTRIBUTE_CONFLICT"
	ReasonForbiddenKeyword   ReasonCode = "FORBIDDEN_KEYWORD"
	ReasonAnchorMissing      ReasonCode = "ANCHOR_MISSING"
	ReasonGradeMismatch      ReasonCode = "GRADE_MISMATCH"
	ReasonPriceOutlier       ReasonCode = "PRICE_OUTLIER"
	ReasonPackOutOfTolerance ReasonCode = "PACK_OUT_OF_TOLERANCE"
	ReasonPackUnknown        ReasonCode = "PACK_UNKNOWN"
	ReasonUnitMismatch       ReasonCode = "UNIT_MISMATCH"
	ReasonBrandMismatch      ReasonCode = "BRAND_MISMATCH"
	ReasonOriginMismatch     ReasonCode = "ORIGIN_MISMATCH"
)

// reasonMessages maps reason codes to the human-readable text surfaced to users.
var reasonMessages = map[ReasonCode]string{
	ReasonOK:                        "Подобран самый выгодный вариант",
	ReasonInsufficientData:          "Недостаточно данных для поиска",
	ReasonCoreNotDetected:           "Не удалось определить тип товара",
	ReasonCoreNoCandidates:          "Нет предложений этого типа товара",
	ReasonRejectedByGuards:          "Все предложения отклонены проверками соответствия",
	ReasonBrandRequiredNotFound:     "Нет предложений требуемого бренда",
	ReasonOriginRequiredNotFound:    "Нет предложений требуемого происхождения",
	ReasonUnitMismatchAllRejected:   "Единицы измерения не совпадают ни с одним предложением",
	ReasonPackOutlierAllRejected:    "Фасовка всех предложений вне допустимого диапазона",
	ReasonNoCandidatesOverThreshold: "Ни одно предложение не прошло порог схожести",
	ReasonSupplierMinNotMet:         "Не достигнута минимальная сумма заказа поставщика",
	ReasonError:                     "Внутренняя ошибка поиска",
	ReasonCoreMismatch:              "Другой тип товара",
	ReasonCategoryMismatch:          "Товар из другой категории",
	ReasonAttributeConflict:         "Конфликт характеристик",
	ReasonForbiddenKeyword:          "Содержит запрещённое для категории слово",
	ReasonAnchorMissing:             "Нет обязательного признака категории",
	ReasonGradeMismatch:             "Не совпадает сорт или градация",
	ReasonPriceOutlier:              "Цена вне правдоподобного диапазона",
	ReasonPackOutOfTolerance:        "Фасовка вне допуска",
	ReasonPackUnknown:               "Фасовка не распознана",
	ReasonUnitMismatch:              "Другая единица измерения",
	ReasonBrandMismatch:             "Другой бренд",
	ReasonOriginMismatch:            "Другое происхождение",
}

// Message returns the human-readable text for the reason code.
func (r ReasonCode) Message() string {
	if msg, ok := reasonMessages[r]; ok {
		return msg
	}
	return string(r)
}

// GuardResult is the outcome of one guard over one (reference, candidate)
// pair. Transient diagnostic only; never crosses the engine boundary as
// an error.
type GuardResult struct {
	Guard  string     `json:"guard"`
	Pass   bool       `json:"pass"`
	Reason ReasonCode `json:"reason,omitempty"`
	Detail string     `json:"detail,omitempty"`
}

// Economics carries the quantity-aware purchase math for a selected offer.
type Economics struct {
	EffectiveQty int     `json:"effectiveQty"`
	LineTotal    float64 `json:"lineTotal"`
	PacksNeeded  int     `json:"packsNeeded"`
}

// Alternate is a ranked runner-up offer kept for explainability.
type Alternate struct {
	Offer     CandidateOffer `json:"offer"`
	Score     float64        `json:"score"`
	TotalCost float64        `json:"totalCost"`
}

// MatchDecision is the complete, typed result of one search call.
// Offer is nil exactly when Reason != OK.
type MatchDecision struct {
	Offer       *CandidateOffer    `json:"offer,omitempty"`
	Reason      ReasonCode         `json:"reason"`
	Message     string             `json:"message"`
	Score       float64            `json:"score"`
	Phase       Phase              `json:"phase,omitempty"`
	Economics   Economics          `json:"economics"`
	Alternates  []Alternate        `json:"alternates,omitempty"`
	Diagnostics *SearchDiagnostics `json:"diagnostics,omitempty"`
}

// OK reports whether the decision selected an offer.
func (d *MatchDecision) OK() bool {
	return d.Reason == ReasonOK && d.Offer != nil
}

// StageCount records how many candidates survived a pipeline stage.
type StageCount struct {
	Stage string `json:"stage"`
	Count int    `json:"count"`
}

// SearchDiagnostics is the structured per-call record emitted for the
// search-quality dashboard. Informational only, never used for control flow.
type SearchDiagnostics struct {
	TraceID        string        `json:"traceId"`
	ReferenceName  string        `json:"referenceName"`
	SuperClass     string        `json:"superClass,omitempty"`
	ProductCoreID  string        `json:"productCoreId,omitempty"`
	Phase          Phase         `json:"phase"`
	StageCounts    []StageCount  `json:"stageCounts"`
	SampledRejects []GuardResult `json:"sampledRejects,omitempty"`
	SelectedOffer  string        `json:"selectedOffer,omitempty"`
	FinalScore     float64       `json:"finalScore"`
	Reason         ReasonCode    `json:"reason"`
	Error          string        `json:"error,omitempty"`
	Elapsed        time.Duration `json:"elapsed"`
}

package model

// CatalogRow 电影目录原始行（movies 表，附带指标与上架信息）
type CatalogRow struct {
	ID            int64        `json:"id" gorm:"primaryKey"`
	Title         *string      `json:"title"`
	OriginalTitle *string      `json:"original_title"`
	Overview      *string      `json:"overview"`
	ReleaseDate   *string      `json:"release_date"`
	TrailerID     *string      `json:"trailer_id" gorm:"index"`
	Genres        []GenreValue `json:"genres" gorm:"serializer:json"`
	Metrics       *Metrics     `json:"movie_metrics" gorm:"foreignKey:MovieID"`
	Offers        []Offer      `json:"movie_offers" gorm:"foreignKey:MovieID"`
}

func (CatalogRow) TableName() string { return "movies" }

// GenreValue 类型条目，id 与 name 都可能缺失
type GenreValue struct {
	ID   *int    `json:"id,omitempty"`
	Name *string `json:"name,omitempty"`
}

// Metrics 评分指标（movie_metrics 表）
type Metrics struct {
	MovieID     int64    `json:"movie_id" gorm:"primaryKey;autoIncrement:false"`
	VoteAverage *float64 `json:"vote_average"`
	VoteCount   *int64   `json:"vote_count"`
}

func (Metrics) TableName() string { return "movie_metrics" }

// Offer 上架信息（movie_offers 表）
type Offer struct {
	ID         int64     `json:"id" gorm:"primaryKey"`
	MovieID    int64     `json:"movie_id" gorm:"index"`
	OfferType  *string   `json:"offer_type"`
	ProviderID *int64    `json:"provider_id"`
	Provider   *Provider `json:"provider" gorm:"foreignKey:ProviderID;references:ProviderID"`
}

func (Offer) TableName() string { return "movie_offers" }

// Provider 流媒体平台（providers 表）
type Provider struct {
	ProviderID      int64   `json:"provider_id" gorm:"primaryKey;autoIncrement:false"`
	ProviderName    *string `json:"provider_name"`
	DisplayPriority *int    `json:"display_priority"`
}

func (Provider) TableName() string { return "providers" }

// MovieID 电影 ID
type MovieID = int64

// Movie 返回给客户端的电影记录
type Movie struct {
	ID                 MovieID             `json:"id"`
	Title              string              `json:"title"`
	Description        string              `json:"description"`
	ReleaseDate        string              `json:"releaseDate"`
	Genre              string              `json:"genre"`
	VideoURL           string              `json:"videoUrl"`
	Rating             MovieRating         `json:"rating"`
	StreamingProviders []StreamingProvider `json:"streamingProviders"`
}

// MovieRating 评分
type MovieRating struct {
	Source    string  `json:"source"`
	Score     float64 `json:"score"`
	MaxScore  float64 `json:"maxScore"`
	VoteCount int64   `json:"voteCount"`
}

// ProviderAccess 观看方式
type ProviderAccess string

const (
	AccessSubscription ProviderAccess = "subscription"
	AccessFree         ProviderAccess = "free"
	AccessRent         ProviderAccess = "rent"
	AccessBuy          ProviderAccess = "buy"
)

// StreamingProvider 可观看平台
type StreamingProvider struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Access ProviderAccess `json:"access"`
}

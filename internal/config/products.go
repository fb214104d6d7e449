package config

type Products struct {
	// PageSize caps list and price-filtered reads. There is no cursor.
	// Values below 1 fall back to DefaultPageSize.
	PageSize int32 `env:"PRODUCTS_PAGE_SIZE" envDefault:"10"`
}

const DefaultPageSize int32 = 10

func (p Products) EffectivePageSize() int32 {
	if p.PageSize < 1 {
		return DefaultPageSize
	}
	return p.PageSize
}

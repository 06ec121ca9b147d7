package api

// PageFunc fetches one page of a paginated collection.
type PageFunc func(page, perPage int) (Page, error)

// Pager turns a page-based list endpoint into a finite, non-restartable
// sequence of records, in the manner of bufio.Scanner:
//
//	p := api.NewPager(fetch, 50)
//	for p.Next() {
//	    r := p.Record()
//	    ...
//	}
//	if err := p.Err(); err != nil { ... }
//
// The sequence ends once page*per_page >= total, trusting the server-reported
// total. If the server clamps the page size, the per_page it reports is
// authoritative for the termination arithmetic.
type Pager struct {
	fetch   PageFunc
	perPage int
	limit   int

	page    int // last fetched page, 0 before the first fetch
	perResp int // authoritative per_page of the last response
	total   int

	records []Record
	idx     int
	count   int

	cur  Record
	err  error
	done bool
}

// NewPager returns a Pager over all records of the collection.
func NewPager(fetch PageFunc, perPage int) *Pager {
	return &Pager{fetch: fetch, perPage: perPage}
}

// NewCappedPager returns a Pager that additionally stops once limit records
// have been produced, truncating mid-page if necessary.
func NewCappedPager(fetch PageFunc, perPage, limit int) *Pager {
	return &Pager{fetch: fetch, perPage: perPage, limit: limit}
}

// Next advances the pager to the next record. It returns false when the
// sequence is exhausted, the cap is reached, or a fetch failed.
func (p *Pager) Next() bool {
	if p.done || p.err != nil {
		return false
	}
	if p.limit > 0 && p.count >= p.limit {
		p.done = true
		return false
	}

	for p.idx >= len(p.records) {
		if p.page > 0 && p.page*p.perResp >= p.total {
			p.done = true
			return false
		}

		page, err := p.fetch(p.page+1, p.perPage)
		if err != nil {
			p.err = err
			return false
		}
		p.page++
		p.records = page.Records
		p.idx = 0
		p.total = page.Total
		p.perResp = page.PerPage
		if p.perResp <= 0 {
			p.perResp = p.perPage
		}
	}

	p.cur = p.records[p.idx]
	p.idx++
	p.count++
	return true
}

// Record returns the record produced by the last successful call to Next.
func (p *Pager) Record() Record {
	return p.cur
}

// Count returns how many records the pager has produced so far.
func (p *Pager) Count() int {
	return p.count
}

// Err returns the first error encountered while fetching pages, if any.
func (p *Pager) Err() error {
	return p.err
}

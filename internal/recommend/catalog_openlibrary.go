package recommend

import (
	"context"
	"time"

	"bookrec/internal/cache"
	"bookrec/internal/platform/openlibrary"
)

// OpenLibraryCatalog adapts the Open Library client to the CatalogClient
// boundary, with a read-through TTL cache over work details (the only lookup
// that repeats across one request's scoring and enhancement phases).
type OpenLibraryCatalog struct {
	client *openlibrary.Client
	works  *cache.TTL[BookRecord]
}

func NewOpenLibraryCatalog(client *openlibrary.Client, detailTTL time.Duration) *OpenLibraryCatalog {
	return &OpenLibraryCatalog{
		client: client,
		works:  cache.NewTTL[BookRecord](detailTTL),
	}
}

func (c *OpenLibraryCatalog) FindBook(ctx context.Context, title string) (BookRecord, error) {
	doc, err := c.client.FindBook(ctx, title)
	if err != nil {
		return BookRecord{}, err
	}
	return fromSearchDoc(*doc), nil
}

func (c *OpenLibraryCatalog) SearchSubject(ctx context.Context, subject string, limit int) ([]BookRecord, error) {
	docs, err := c.client.SearchSubject(ctx, subject, limit)
	if err != nil {
		return nil, err
	}
	records := make([]BookRecord, 0, len(docs))
	for _, doc := range docs {
		records = append(records, fromSearchDoc(doc))
	}
	return records, nil
}

func (c *OpenLibraryCatalog) WorkDetails(ctx context.Context, workID string) (BookRecord, error) {
	if record, ok := c.works.Get(workID); ok {
		return record, nil
	}

	work, err := c.client.GetWork(ctx, workID)
	if err != nil {
		return BookRecord{}, err
	}

	record := BookRecord{
		ID:               workID,
		Title:            work.Title,
		Subjects:         work.Subjects,
		FirstPublishDate: work.FirstPublishDate,
		PageCount:        work.NumberOfPages,
	}
	c.works.Set(workID, record)
	return record, nil
}

func fromSearchDoc(doc openlibrary.SearchDoc) BookRecord {
	return BookRecord{
		ID:           doc.WorkID(),
		Title:        doc.Title,
		Authors:      doc.AuthorNames,
		Subjects:     doc.Subjects,
		Year:         doc.FirstPublishYear,
		EditionCount: doc.EditionCount,
		Publishers:   doc.Publishers,
		Rating:       doc.RatingsAverage,
		CoverURL:     openlibrary.CoverURL(doc.CoverID),
	}
}

// Package normalize turns loosely-typed CSV rows into a uniform PostSet.
package normalize

import (
	"encoding/csv"
	"fmt"
	"hash/fnv"
	"html"
	"io"
	"strconv"
	"strings"
	"time"

	"postlens/internal/core"
	"postlens/internal/logger"

	"github.com/PuerkitoBio/goquery"
)

// Row is one header-keyed record from a CSV parse. No schema conformance
// is assumed beyond header alignment.
type Row map[string]string

// Options controls normalization. Identical rows with the same options
// always yield the same PostSet.
type Options struct {
	Author string // Dataset author, used by the reshare heuristic
}

// Column aliases accepted for each post field. Export formats differ
// between platforms, so matching is case-insensitive.
var (
	dateColumns      = []string{"date", "timestamp", "created_at", "created date", "published"}
	textColumns      = []string{"text", "sharecommentary", "commentary", "content", "post_text", "body"}
	reactionsColumns = []string{"reactions", "likes", "likescount", "num_likes", "reaction_count"}
	commentsColumns  = []string{"comments", "commentscount", "num_comments", "comment_count"}
	sharesColumns    = []string{"shares", "reposts", "sharescount", "num_shares", "share_count"}
	reshareColumns   = []string{"is_reshare", "reshare", "sharedurl", "shared_url", "repost_of"}
	authorColumns    = []string{"author", "author_name", "posted_by"}
	idColumns        = []string{"id", "post_id", "sharelink", "share_link", "url"}
)

// Accepted timestamp layouts, tried in order.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 15:04",
	"01/02/2006",
}

// ReadRows parses CSV content into header-keyed rows. Header names are
// lowercased; short rows are padded with empty values by the csv reader
// configuration.
func ReadRows(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, core.NewError(core.ErrValidation, "failed to parse CSV", err)
	}
	if len(records) < 2 {
		return nil, core.Errorf(core.ErrValidation, "CSV contains no data rows")
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}

	rows := make([]Row, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(Row, len(header))
		for i, name := range header {
			if i < len(record) {
				row[name] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Normalize converts rows into an ordered PostSet. Rows without a parseable
// timestamp are dropped with a logged skip reason; missing engagement
// counters default to zero. Fails only on structurally empty input.
func Normalize(rows []Row, opts Options) (core.PostSet, error) {
	if len(rows) == 0 {
		return nil, core.Errorf(core.ErrValidation, "no rows to normalize")
	}

	log := logger.Get()
	posts := make(core.PostSet, 0, len(rows))
	for i, row := range rows {
		ts, ok := parseTimestamp(lookup(row, dateColumns))
		if !ok {
			log.Debug().Int("row", i+1).Msg("skipping row without parseable timestamp")
			continue
		}

		text := cleanText(lookup(row, textColumns))
		post := core.Post{
			ID:          rowID(row, ts, text),
			Timestamp:   ts.UTC(),
			Text:        text,
			Reactions:   parseCount(lookup(row, reactionsColumns)),
			Comments:    parseCount(lookup(row, commentsColumns)),
			Shares:      parseCount(lookup(row, sharesColumns)),
			IsReshare:   isReshare(row, opts.Author),
			MonthBucket: ts.UTC().Format("2006-01"),
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// lookup returns the first non-empty value among the aliased columns.
func lookup(row Row, aliases []string) string {
	for _, name := range aliases {
		if v, ok := row[name]; ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// rowID returns the source id when present, or a stable digest of the
// row's timestamp and text so identical input rows always yield
// identical posts.
func rowID(row Row, ts time.Time, text string) string {
	if id := lookup(row, idColumns); id != "" {
		return id
	}
	h := fnv.New64a()
	h.Write([]byte(ts.UTC().Format(time.RFC3339)))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return fmt.Sprintf("post-%016x", h.Sum64())
}

func parseTimestamp(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func parseCount(value string) int {
	if value == "" {
		return 0
	}
	n, err := strconv.Atoi(strings.ReplaceAll(value, ",", ""))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// cleanText strips markup and entities from a raw post body. Exports embed
// HTML fragments in free-text columns, so the body is run through a
// document parse before unescaping.
func cleanText(raw string) string {
	if raw == "" {
		return ""
	}
	text := raw
	if strings.Contains(raw, "<") && strings.Contains(raw, ">") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
		if err == nil {
			text = doc.Text()
		}
	}
	return strings.TrimSpace(html.UnescapeString(text))
}

// isReshare derives the reshare flag from an explicit marker column or,
// failing that, from an author mismatch against the dataset owner.
func isReshare(row Row, datasetAuthor string) bool {
	marker := lookup(row, reshareColumns)
	switch strings.ToLower(marker) {
	case "":
		// fall through to the author heuristic
	case "false", "no", "0":
		return false
	default:
		return true
	}

	rowAuthor := lookup(row, authorColumns)
	if rowAuthor == "" || datasetAuthor == "" {
		return false
	}
	return !strings.EqualFold(rowAuthor, datasetAuthor)
}

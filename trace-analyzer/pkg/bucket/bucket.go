// Package bucket assigns operation events to fixed payload-size buckets
// and maps operation codes to summary categories.
//
// Buckets carry a stable numeric rank so grouped output sorts the same way
// regardless of which buckets a run actually hits. Category summary rows
// use the reserved ranks 97-99 so they always sort after every size bucket.
package bucket

// =============================================================================
// Size Buckets
// =============================================================================

const (
	KiB = 1 << 10
	MiB = 1 << 20
	GiB = 1 << 30
)

// Bucket is one payload-size range with a stable sort rank.
type Bucket struct {
	Label string
	Rank  int
}

// table maps payload sizes to buckets, evaluated top to bottom; the first
// matching predicate wins and the final predicate is total. Boundaries are
// closed below, open above.
var table = []struct {
	match  func(bytes int64) bool
	bucket Bucket
}{
	{func(b int64) bool { return b == 0 }, Bucket{"zero", 0}},
	{func(b int64) bool { return b < 8*KiB }, Bucket{"1B-8KiB", 1}},
	{func(b int64) bool { return b < 64*KiB }, Bucket{"8KiB-64KiB", 2}},
	{func(b int64) bool { return b < 512*KiB }, Bucket{"64KiB-512KiB", 3}},
	{func(b int64) bool { return b < 4*MiB }, Bucket{"512KiB-4MiB", 4}},
	{func(b int64) bool { return b < 32*MiB }, Bucket{"4MiB-32MiB", 5}},
	{func(b int64) bool { return b < 256*MiB }, Bucket{"32MiB-256MiB", 6}},
	{func(b int64) bool { return b < 2*GiB }, Bucket{"256MiB-2GiB", 7}},
	{func(b int64) bool { return true }, Bucket{">2GiB", 8}},
}

// Assign maps a non-negative payload size to its bucket. It is total and
// deterministic; rank grows monotonically with payload size. Negative
// payloads never reach here (the loader rejects them at parse time).
func Assign(bytes int64) Bucket {
	for _, e := range table {
		if e.match(bytes) {
			return e.bucket
		}
	}
	return table[len(table)-1].bucket
}

// Count returns how many size buckets exist.
func Count() int {
	return len(table)
}

// Labels returns the bucket labels in rank order.
func Labels() []string {
	labels := make([]string, len(table))
	for i, e := range table {
		labels[i] = e.bucket.Label
	}
	return labels
}

// =============================================================================
// Operation Categories
// =============================================================================

// Category groups operation codes for summary rows: META covers the
// metadata operations, GET and PUT cover their single operations.
type Category struct {
	Name string
	Rank int
}

var (
	Meta = Category{"META", 97}
	Get  = Category{"GET", 98}
	Put  = Category{"PUT", 99}
)

// Categories lists the summary categories in output order.
var Categories = []Category{Meta, Get, Put}

// CategoryBucketLabel stands in for the size bucket on summary rows.
const CategoryBucketLabel = "ALL"

// metaOps are the operation codes grouped under META.
var metaOps = map[string]bool{
	"LIST":   true,
	"HEAD":   true,
	"DELETE": true,
	"STAT":   true,
}

// Categorize maps an operation code to its summary category. Unknown codes
// belong to no category; they still appear in per-operation bucket rows.
func Categorize(op string) (Category, bool) {
	switch {
	case op == Get.Name:
		return Get, true
	case op == Put.Name:
		return Put, true
	case metaOps[op]:
		return Meta, true
	}
	return Category{}, false
}

// Ops returns the operation codes a category covers.
func (c Category) Ops() []string {
	switch c.Name {
	case Get.Name:
		return []string{"GET"}
	case Put.Name:
		return []string{"PUT"}
	case Meta.Name:
		return []string{"LIST", "HEAD", "DELETE", "STAT"}
	}
	return nil
}

package catalog

import "time"

var testNow = time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

package metrics

// AssetUpsert records a create or update.
func AssetUpsert(chainNamespace, operation, status string) {
	if !enabled {
		return
	}
	upsertTotal.WithLabelValues(chainNamespace, operation, status).Inc()
}

// ImportEntry records one processed legacy entry.
func ImportEntry(status string) {
	if !enabled {
		return
	}
	importTotal.WithLabelValues(status).Inc()
}

// AssetVerify records a verification result.
func AssetVerify(chainNamespace, result string) {
	if !enabled {
		return
	}
	verifyTotal.WithLabelValues(chainNamespace, result).Inc()
}

// VerificationFinding records one error or warning.
func VerificationFinding(severity, kind string) {
	if !enabled {
		return
	}
	findingTotal.WithLabelValues(severity, kind).Inc()
}

// ExportRecords records how many records an export wrote.
func ExportRecords(format string, n int) {
	if !enabled {
		return
	}
	exportRecords.WithLabelValues(format).Set(float64(n))
}

package domain

// Progress reports how much of one file has been streamed to the remote side.
type Progress struct {
	Filename string
	Sent     int64
	Total    int64
}

// Percent returns the completed share in the range [0, 100].
// An empty file counts as complete.
func (p Progress) Percent() float64 {
	if p.Total <= 0 {
		return 100
	}
	pct := float64(p.Sent) / float64(p.Total) * 100
	if pct > 100 {
		return 100
	}
	return pct
}

// Transfer is the outcome of one channel copy.
// Committed is true only when the file is visible under its final remote name.
type Transfer struct {
	Filename   string
	RemotePath string
	Bytes      int64
	Committed  bool
}

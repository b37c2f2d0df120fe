package triage

import "context"

// Sniffer port: MIME dari isi file, bukan dari nama
type Sniffer interface {
	Detect(path string) string
}

// Matcher port (signature scan satu file)
type Matcher interface {
	Match(path string) ([]SignatureMatch, error)
}

// Inspector port (fakta format executable)
type Inspector interface {
	Inspect(path string) (*ExecutableFacts, error)
}

// IndicatorScanner port (ekstraksi URL / IP dari raw bytes)
type IndicatorScanner interface {
	Scan(path string) (map[string][]string, error)
}

// Extractor port (Archive Safety Layer). On success the returned
// directory is owned by the caller, who must remove it.
type Extractor interface {
	Extract(ctx context.Context, containerPath, mimeType string) (string, error)
}

// ArtifactStore port (interface untuk penyimpanan artefak)
type ArtifactStore interface {
	Upload(ctx context.Context, localPath, key string) (string, error)
	UploadAndCleanup(ctx context.Context, localPath, key string) (string, error)
}

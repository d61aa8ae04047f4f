package consts

const (
	// DefaultDBName is the default database name.
	DefaultDBName = "kbchat"

	// ChunkTable holds knowledge-base chunks for the pgvector store.
	ChunkTable = "kb_chunks"

	// TableNameResponses is the default table/collection name for cached answers.
	TableNameResponses = "response_cache"
	// TableNameQueries is the default table/collection name for query log entries.
	TableNameQueries = "query_log"

	// Column names
	ColQueryHash = "query_hash"
	ColQuery     = "query"
	ColAnswer    = "answer"
	ColExpiresAt = "expires_at"
	ColCreatedAt = "created_at"
	ColUpdatedAt = "updated_at"

	// Redis key prefixes
	KeyPrefixResponse = "kbchat:response:"
	KeyQueryLog       = "kbchat:query_log"

	// Neo4j specific
	LabelQuery   = "Query"
	LabelChunk   = "Chunk"
	RelRetrieved = "RETRIEVED"
)

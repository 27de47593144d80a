package db

// SchemaSQL contains the database schema initialization SQL.
const SchemaSQL = `
    -- ==========================================================================
    -- SESSION TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS session SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS owner ON session TYPE string;
    DEFINE FIELD IF NOT EXISTS title ON session TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS summary ON session TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS message_count ON session TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS archived ON session TYPE bool DEFAULT false;
    DEFINE FIELD IF NOT EXISTS metadata ON session TYPE option<object> FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS created_at ON session TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS last_activity ON session TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS session_owner ON session FIELDS owner;

    -- ==========================================================================
    -- MESSAGE TABLE (immutable, owned by its session)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS message SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS session ON message TYPE record<session>;
    DEFINE FIELD IF NOT EXISTS seq ON message TYPE int;
    DEFINE FIELD IF NOT EXISTS role ON message TYPE string ASSERT $value IN ["human", "ai"];
    DEFINE FIELD IF NOT EXISTS content ON message TYPE string;
    DEFINE FIELD IF NOT EXISTS history ON message TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS created_at ON message TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS message_session ON message FIELDS session;
    DEFINE INDEX IF NOT EXISTS message_session_seq ON message FIELDS session, seq UNIQUE;

    -- ==========================================================================
    -- MEMORY TABLE (durable cross-session facts about an owner)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS memory SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS owner ON memory TYPE string;
    DEFINE FIELD IF NOT EXISTS kind ON memory TYPE string
        ASSERT $value IN ["fact", "preference", "goal", "constraint"];
    DEFINE FIELD IF NOT EXISTS category ON memory TYPE string;
    DEFINE FIELD IF NOT EXISTS content ON memory TYPE string;
    DEFINE FIELD IF NOT EXISTS confidence ON memory TYPE float DEFAULT 1.0;
    DEFINE FIELD IF NOT EXISTS session ON memory TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS verified ON memory TYPE bool DEFAULT false;
    DEFINE FIELD IF NOT EXISTS active ON memory TYPE bool DEFAULT true;
    DEFINE FIELD IF NOT EXISTS extracted_at ON memory TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS memory_owner ON memory FIELDS owner;
    DEFINE INDEX IF NOT EXISTS memory_owner_category ON memory FIELDS owner, category;

    -- ==========================================================================
    -- PREFERENCE TABLE (persisted per-owner personality preference)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS preference SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS owner ON preference TYPE string;
    DEFINE FIELD IF NOT EXISTS personality ON preference TYPE string;
    DEFINE FIELD IF NOT EXISTS updated_at ON preference TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS preference_owner ON preference FIELDS owner UNIQUE;

    -- ==========================================================================
    -- EVALUATION TABLE (sampled LLM-as-judge scores)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS evaluation SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS owner ON evaluation TYPE string;
    DEFINE FIELD IF NOT EXISTS session ON evaluation TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS helpfulness ON evaluation TYPE float;
    DEFINE FIELD IF NOT EXISTS safety ON evaluation TYPE float;
    DEFINE FIELD IF NOT EXISTS personalization ON evaluation TYPE float;
    DEFINE FIELD IF NOT EXISTS overall ON evaluation TYPE float;
    DEFINE FIELD IF NOT EXISTS reasoning ON evaluation TYPE string;
    DEFINE FIELD IF NOT EXISTS judge ON evaluation TYPE string;
    DEFINE FIELD IF NOT EXISTS created_at ON evaluation TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS evaluation_owner ON evaluation FIELDS owner;
`

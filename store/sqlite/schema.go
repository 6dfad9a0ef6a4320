package sqlite

// Dates are TEXT "YYYY-MM-DD"; decimals are TEXT so no value passes through
// a float. Lists keep insertion order through rowid.
const schema = `
	-- Entries (append-only ledger)
	CREATE TABLE IF NOT EXISTS entries (
		id TEXT PRIMARY KEY,
		holder_id TEXT NOT NULL,
		account TEXT NOT NULL,
		entry_type TEXT NOT NULL,
		effective_at TEXT NOT NULL,
		amount TEXT NOT NULL,
		reference_id TEXT,
		reason TEXT,
		idempotency_key TEXT UNIQUE,
		metadata_json TEXT,
		created_by TEXT,
		created_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_entries_holder_account
		ON entries(holder_id, account, effective_at);

	-- Products
	CREATE TABLE IF NOT EXISTS contracts (
		code TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		policy_type TEXT NOT NULL,
		base_multiplier TEXT NOT NULL,
		min_sum_assured TEXT NOT NULL,
		max_sum_assured TEXT NOT NULL,
		include_adb INTEGER NOT NULL DEFAULT 0,
		include_ptd INTEGER NOT NULL DEFAULT 0,
		adb_percentage TEXT NOT NULL,
		ptd_percentage TEXT NOT NULL,
		guaranteed_interest_rate TEXT NOT NULL,
		terminal_bonus_rate TEXT NOT NULL
	);

	-- Rate tables
	CREATE TABLE IF NOT EXISTS mortality_rates (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		min_age INTEGER NOT NULL,
		max_age INTEGER NOT NULL,
		rate TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS duration_factors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		policy_type TEXT NOT NULL,
		min_years INTEGER NOT NULL,
		max_years INTEGER NOT NULL,
		factor TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS gsv_rates (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		product_code TEXT NOT NULL,
		min_year INTEGER NOT NULL,
		max_year INTEGER NOT NULL,
		rate TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS ssv_configs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		product_code TEXT NOT NULL,
		min_year INTEGER NOT NULL,
		max_year INTEGER NOT NULL,
		factor TEXT NOT NULL,
		eligibility_years INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS bonus_rates (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		product_code TEXT NOT NULL,
		year INTEGER NOT NULL,
		min_term INTEGER NOT NULL,
		max_term INTEGER NOT NULL,
		bonus_per_thousand TEXT NOT NULL
	);

	-- Agents
	CREATE TABLE IF NOT EXISTS agents (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		branch_code TEXT NOT NULL,
		commission_rate TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		total_policies_sold INTEGER NOT NULL DEFAULT 0,
		total_premium_collected TEXT NOT NULL,
		last_policy_date TEXT
	);

	CREATE TABLE IF NOT EXISTS agent_reports (
		agent_id TEXT NOT NULL REFERENCES agents(id),
		report_date TEXT NOT NULL,
		branch_code TEXT NOT NULL,
		period TEXT NOT NULL,
		policies_sold INTEGER NOT NULL DEFAULT 0,
		total_premium TEXT NOT NULL,
		commission_earned TEXT NOT NULL,
		PRIMARY KEY (agent_id, report_date)
	);

	-- Holders (one row per policy contract instance)
	CREATE TABLE IF NOT EXISTS holders (
		id TEXT PRIMARY KEY,
		customer_id TEXT NOT NULL,
		product_code TEXT NOT NULL REFERENCES contracts(code),
		company_code TEXT NOT NULL,
		branch_code TEXT NOT NULL,
		agent_id TEXT,
		policy_number TEXT UNIQUE,
		sum_assured TEXT NOT NULL,
		duration_years INTEGER NOT NULL,
		date_of_birth TEXT NOT NULL,
		payment_interval TEXT NOT NULL,
		occupation TEXT,
		smoker INTEGER NOT NULL DEFAULT 0,
		alcoholic INTEGER NOT NULL DEFAULT 0,
		risk_category TEXT,
		status TEXT NOT NULL,
		start_date TEXT NOT NULL,
		maturity_date TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_holders_status ON holders(status);

	CREATE TABLE IF NOT EXISTS underwriting (
		holder_id TEXT PRIMARY KEY REFERENCES holders(id),
		score INTEGER NOT NULL,
		category TEXT,
		manual_override INTEGER NOT NULL DEFAULT 0,
		remarks TEXT,
		last_updated_by TEXT,
		updated_at TEXT
	);

	-- Premium ledgers (versioned)
	CREATE TABLE IF NOT EXISTS premium_ledgers (
		holder_id TEXT PRIMARY KEY REFERENCES holders(id),
		product_code TEXT NOT NULL,
		policy_type TEXT NOT NULL,
		payment_interval TEXT NOT NULL,
		start_date TEXT NOT NULL,
		annual_premium TEXT NOT NULL,
		interval_premium TEXT NOT NULL,
		total_premium TEXT NOT NULL,
		total_paid TEXT NOT NULL,
		remaining_premium TEXT NOT NULL,
		fine_due TEXT NOT NULL,
		fine_paid TEXT NOT NULL,
		due_index INTEGER NOT NULL,
		next_due_date TEXT,
		fine_assessed_for TEXT,
		payment_count INTEGER NOT NULL,
		gsv TEXT NOT NULL,
		ssv TEXT NOT NULL,
		status TEXT NOT NULL,
		version INTEGER NOT NULL,
		updated_at TEXT
	);

	-- Loans (versioned)
	CREATE TABLE IF NOT EXISTS loans (
		id TEXT PRIMARY KEY,
		holder_id TEXT NOT NULL REFERENCES holders(id),
		principal TEXT NOT NULL,
		interest_rate TEXT NOT NULL,
		remaining_balance TEXT NOT NULL,
		accrued_interest TEXT NOT NULL,
		status TEXT NOT NULL,
		last_interest_date TEXT,
		created_at TEXT,
		updated_at TEXT,
		version INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_loans_holder ON loans(holder_id);
	CREATE INDEX IF NOT EXISTS idx_loans_status ON loans(status);

	CREATE TABLE IF NOT EXISTS loan_repayments (
		id TEXT PRIMARY KEY,
		loan_id TEXT NOT NULL REFERENCES loans(id),
		holder_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		repayment_type TEXT NOT NULL,
		interest_paid TEXT NOT NULL,
		principal_paid TEXT NOT NULL,
		unapplied TEXT NOT NULL,
		remaining_loan_balance TEXT NOT NULL,
		repaid_on TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_loan_repayments_loan ON loan_repayments(loan_id);

	-- Claims
	CREATE TABLE IF NOT EXISTS claim_requests (
		id TEXT PRIMARY KEY,
		holder_id TEXT NOT NULL REFERENCES holders(id),
		reason TEXT,
		amount TEXT NOT NULL,
		status TEXT NOT NULL,
		claim_date TEXT NOT NULL,
		updated_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_claim_requests_holder ON claim_requests(holder_id);

	CREATE TABLE IF NOT EXISTS claim_processing (
		id TEXT PRIMARY KEY,
		claim_id TEXT NOT NULL UNIQUE REFERENCES claim_requests(id),
		status TEXT NOT NULL,
		remarks TEXT,
		processed_at TEXT
	);

	CREATE TABLE IF NOT EXISTS claim_payments (
		id TEXT PRIMARY KEY,
		claim_id TEXT NOT NULL UNIQUE REFERENCES claim_requests(id),
		holder_id TEXT NOT NULL,
		status TEXT NOT NULL,
		amount_paid TEXT NOT NULL,
		reference TEXT NOT NULL,
		paid_on TEXT NOT NULL
	);
`

package sqlinline

// SQLite statements for the embedded store. Timestamps are RFC 3339 text;
// seq is the rowid and orders entries by insertion.

const SQLiteCreateHistoryTable = `--sql e533b5c4-d398-4ed4-a676-897682acc23b
create table if not exists history_entries (
  seq integer primary key autoincrement,
  id text not null unique,
  type text not null,
  data text not null default '',
  prompt text not null default '',
  text text not null default '',
  sources text,
  created_at text not null
);
`

const SQLiteCreateIntegrationTokensTable = `--sql f1e2e679-c551-4c2a-af43-4713c3965871
create table if not exists integration_tokens (
  provider text primary key,
  token text not null,
  created_at text not null,
  updated_at text not null
);
`

const SQLiteListHistory = `--sql 3ffce33a-0073-4b00-9468-10e71e376563
select id, type, data, prompt, text, sources, created_at
from history_entries
order by seq desc;
`

const SQLiteInsertHistory = `--sql 273efb57-e183-487d-8448-3653c8b954c6
insert into history_entries (id, type, data, prompt, text, sources, created_at)
values (?, ?, ?, ?, ?, ?, ?);
`

const SQLiteDeleteHistory = `--sql 87810bfd-7e36-441f-a9fa-0f6d2cb7892b
delete from history_entries where id = ?;
`

const SQLiteDeleteAllHistory = `--sql 6c1a5781-c7a0-488f-b811-6c494fb876e9
delete from history_entries;
`

const SQLiteSelectIntegrationToken = `--sql 11f89956-e8ed-4378-a3b4-efa363a00551
select token from integration_tokens where provider = ? limit 1;
`

const SQLiteUpsertIntegrationToken = `--sql 6a5c840f-9c96-4ed4-8ddf-67a8cadb8fe2
insert into integration_tokens (provider, token, created_at, updated_at)
values (?, ?, ?, ?)
on conflict (provider) do update set
  token = excluded.token,
  updated_at = excluded.updated_at;
`

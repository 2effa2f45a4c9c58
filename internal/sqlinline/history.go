package sqlinline

// PostgreSQL history store. seq orders entries by insertion so newest-first
// listing is stable even when created_at values collide.

const QCreateHistoryTable = `--sql 4c6fc64c-e43c-440f-b60c-171265146b28
create table if not exists history_entries (
  id uuid primary key,
  seq bigserial not null,
  type text not null,
  data text not null default '',
  prompt text not null default '',
  text text,
  sources jsonb,
  created_at timestamptz not null default now()
);
`

const QCreateHistorySeqIndex = `--sql 8da115a9-302d-4b66-8964-164f23db1fac
create index if not exists history_entries_seq_idx on history_entries (seq desc);
`

const QListHistory = `--sql 7cef6bbd-76e5-40fa-bde3-e51d1d1564e6
select
  id::text,
  type,
  data,
  prompt,
  coalesce(text, ''),
  sources,
  created_at
from history_entries
order by seq desc;
`

const QInsertHistory = `--sql 1efc8206-135a-4414-8d00-50bbe7d61847
insert into history_entries (id, type, data, prompt, text, sources, created_at)
values (
  $1::uuid,
  $2::text,
  $3::text,
  $4::text,
  nullif($5::text, ''),
  $6::jsonb,
  now()
) returning created_at;
`

const QDeleteHistory = `--sql 7816ef85-5311-4ecf-8361-ce0639565ad6
delete from history_entries
where id = $1::uuid;
`

const QDeleteAllHistory = `--sql 6b634260-b6b0-4fe4-8283-0eecb5864553
delete from history_entries;
`

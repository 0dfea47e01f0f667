package sqlinline

// QGetOrCreateProviderSettings inserts the empty default row on first access
// and otherwise returns the stored one.
const QGetOrCreateProviderSettings = `--sql 3bd840d7-9b35-45a2-85e4-92485a2cf063
with created as (
    insert into provider_settings (provider)
    values ($1::text)
    on conflict (provider) do nothing
    returning provider, auth_token, project_id, updated_at
)
select provider, auth_token, project_id, updated_at from created
union all
select provider, auth_token, project_id, updated_at
from provider_settings
where provider = $1::text
limit 1;
`

// QSelectProviderSettings reads the row a concurrent first access created.
const QSelectProviderSettings = `--sql bac729dc-fa44-4ecf-b4b8-0b416fa75334
select provider, auth_token, project_id, updated_at
from provider_settings
where provider = $1::text;
`

const QUpsertProviderSettings = `--sql 5c2a335c-da73-43d9-b9dc-ec84b5a6060f
insert into provider_settings (provider, auth_token, project_id, created_at, updated_at)
values ($1::text, $2::text, $3::text, now(), now())
on conflict (provider) do update set
    auth_token = excluded.auth_token,
    project_id = excluded.project_id,
    updated_at = now()
returning updated_at;
`

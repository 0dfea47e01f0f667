package sqlinline

const QInsertBulkWithJobs = `--sql 4c719774-710d-4014-8f96-cd62eff9144d
with ins_bulk as (
    insert into bulk_requests (title, status, provider)
    values ($1::text, 'processing', $2::text)
    returning id, title, status, provider, created_at, updated_at
),
ins_jobs as (
    insert into prompt_jobs (bulk_request_id, prompt_text, status, provider)
    select (select id from ins_bulk), p.prompt, 'pending', $2::text
    from unnest($3::text[]) with ordinality as p(prompt, ord)
    order by p.ord
    returning id, bulk_request_id, prompt_text, status, provider, created_at, updated_at
)
select
    b.id, b.title, b.status, b.provider, b.created_at, b.updated_at,
    j.id, j.prompt_text, j.status, j.created_at, j.updated_at
from ins_jobs j
cross join ins_bulk b
order by j.id;
`

const QSelectBulkByID = `--sql a4765559-1cd9-4e99-bbe7-fba22cd4d8e0
select id, title, status, provider, created_at, updated_at
from bulk_requests
where id = $1;
`

const QListBulkSummaries = `--sql cbe9bd2f-b312-4082-99a6-4e79f62ef4c0
select
    b.id, b.title, b.status, b.provider, b.created_at, b.updated_at,
    count(j.id)                                             as total,
    count(j.id) filter (where j.status = 'completed')       as completed,
    count(j.id) filter (where j.status = 'failed')          as failed,
    count(j.id) filter (where j.status = 'processing')      as processing,
    count(j.id) filter (where j.status = 'pending')         as pending
from bulk_requests b
left join prompt_jobs j on j.bulk_request_id = b.id
group by b.id
order by b.created_at desc, b.id desc;
`

const QUpdateBulkStatus = `--sql da61285a-4a7a-4bde-b11f-fa3ab653c374
update bulk_requests
set status = $2::text, updated_at = now()
where id = $1;
`

// QCompleteBulkIfSettled evaluates the children inside the same statement
// that flips the parent, so the last sibling to finish always observes the
// others as terminal.
const QCompleteBulkIfSettled = `--sql f13fb644-548f-4c42-a8ed-6b96f075abcc
update bulk_requests b
set status = 'completed', updated_at = now()
where b.id = $1
  and b.status <> 'completed'
  and not exists (
      select 1
      from prompt_jobs j
      where j.bulk_request_id = b.id
        and j.status in ('pending', 'processing')
  );
`

const QDeleteBulkRequests = `--sql 016320b2-1d21-4917-94a2-964b5b7121a0
delete from bulk_requests
where id = any($1::bigint[]);
`

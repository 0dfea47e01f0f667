package sqlinline

const QSelectJobByID = `--sql 121dc4cd-0158-48a5-aa9d-572cda0f1e8d
select id, bulk_request_id, prompt_text, status, provider, generated_image, created_at, updated_at
from prompt_jobs
where id = $1;
`

const QListJobsByBulk = `--sql 5d8f449c-f821-49d5-b64d-55eb93d9cb52
select
    row_number() over (order by id) as sequence,
    id, bulk_request_id, prompt_text, status, provider, generated_image, created_at, updated_at
from prompt_jobs
where bulk_request_id = $1
order by id;
`

const QListJobsByStatus = `--sql 309af397-2053-4bf0-80f7-ca1df1246f2c
select id, bulk_request_id, prompt_text, status, provider, generated_image, created_at, updated_at
from prompt_jobs
where bulk_request_id = $1
  and status = $2::text
order by id;
`

const QListStaleJobs = `--sql 6d4b3100-3590-4c7a-916e-72fc65683e57
select id, bulk_request_id, prompt_text, status, provider, generated_image, created_at, updated_at
from prompt_jobs
where status = any($1::text[])
  and updated_at < $2
  and ($3::bigint is null or bulk_request_id = $3::bigint)
order by id;
`

const QCountJobsByStatus = `--sql 9585fff4-8f48-4f48-bddf-d1c7f628dcd1
select
    count(*)                                         as total,
    count(*) filter (where status = 'completed')     as completed,
    count(*) filter (where status = 'failed')        as failed,
    count(*) filter (where status = 'processing')    as processing,
    count(*) filter (where status = 'pending')       as pending
from prompt_jobs
where ($1::bigint is null or bulk_request_id = $1::bigint);
`

const QCompareAndSetJobStatus = `--sql 3fdbf4ce-da50-40d5-a438-4b9e18467ed4
update prompt_jobs
set status = $3::text,
    generated_image = $4::text,
    updated_at = now()
where id = $1
  and status = $2::text;
`

package sqlinline

const QSelectGroups = `--sql 026b0bf8-be7f-4784-8957-c92094235b62
select
    id,
    name,
    color
from groups
order by name, id;
`

const QUpsertGroup = `--sql 41451a38-db25-42a1-bc9e-65bc8796a0cb
insert into groups (id, name, color, created_at, updated_at)
values ($1, $2, $3, now(), now())
on conflict (id) do update set
    name = excluded.name,
    color = excluded.color,
    updated_at = now();
`

const QDeleteGroup = `--sql 944dbf3e-12a4-492c-acc1-2a8efeeee6fd
delete from groups
where id = $1;
`

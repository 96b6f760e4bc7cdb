package sqlinline

const QSelectPeople = `--sql a63bdcb5-6f18-468f-bb4e-3b875ee3faf3
select
    id,
    name,
    phone_number,
    blood_group,
    last_donation_date,
    group_ids,
    notes,
    location
from people
order by name, id;
`

const QUpsertPerson = `--sql d370d978-47c2-4bff-ad99-a7b41a370661
insert into people (id, name, phone_number, blood_group, last_donation_date, group_ids, notes, location, created_at, updated_at)
values ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
on conflict (id) do update set
    name = excluded.name,
    phone_number = excluded.phone_number,
    blood_group = excluded.blood_group,
    last_donation_date = excluded.last_donation_date,
    group_ids = excluded.group_ids,
    notes = excluded.notes,
    location = excluded.location,
    updated_at = now();
`

const QDeletePerson = `--sql 3c753371-5937-43ac-9154-f143da366a98
delete from people
where id = $1;
`

const QScrubGroupMembership = `--sql 3413f81a-09ad-4ab1-bce2-9e7573231f80
update people
set group_ids = array_remove(group_ids, $1),
    updated_at = now()
where $1 = any(group_ids);
`

const QPing = `--sql 2ebca4cf-7574-451f-9ad2-94fbefd640d9
select 1;
`

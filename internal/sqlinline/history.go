package sqlinline

const QInsertHistory = `--sql 7401ab3f-3e50-4724-8abb-93ab9117651c
insert into transformation_history(id, owner_id, source_path, result_path, style)
values ($1::uuid, $2, $3, $4, $5)
returning created_at;
`

const QListHistoryByOwner = `--sql 479a1881-e205-4031-a7a2-643c41cb335f
select id::text, owner_id, source_path, result_path, style, created_at
from transformation_history
where owner_id = $1
order by created_at desc, id desc
limit $2::int;
`

const QSelectHistoryForOwner = `--sql 60a7b82a-9783-4a60-8d7c-287a6069949b
select id::text, owner_id, source_path, result_path, style, created_at
from transformation_history
where id = $1::uuid and owner_id = $2
limit 1;
`

const QDeleteHistoryForOwner = `--sql 499757f2-3964-4229-9d09-6d0ec2f58dc1
delete from transformation_history
where id = $1::uuid and owner_id = $2
returning id::text, owner_id, source_path, result_path, style, created_at;
`

const QCountHistoryByOwner = `--sql 3f61a6f1-9fed-4eda-9b27-0c52658d62aa
select count(*)
from transformation_history
where owner_id = $1;
`

// History returns the ledger statements keyed by constant name.
func History() map[string]string {
	return map[string]string{
		"QInsertHistory":         QInsertHistory,
		"QListHistoryByOwner":    QListHistoryByOwner,
		"QSelectHistoryForOwner": QSelectHistoryForOwner,
		"QDeleteHistoryForOwner": QDeleteHistoryForOwner,
		"QCountHistoryByOwner":   QCountHistoryByOwner,
	}
}

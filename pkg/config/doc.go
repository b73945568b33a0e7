/*
Package config loads and validates cronsync configuration.

A configuration can come from flags alone or from a YAML, JSON or HCL file
that flags then override:

	from:
	  - /srv/photos
	  - /srv/videos
	to: /mnt/backup
	cron_expr: "0 0 3 * * *"
	parallel_threads: 8
	ignore:
	  - "*.tmp"

Validate is pure and cleans paths in place. Prepare touches the filesystem:
every from path must exist and the to directory is created when missing.
*/
package config

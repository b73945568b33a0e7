/*
Package schedule evaluates cron expressions and runs a job at each fire time.

	s, err := schedule.Parse("0 0 3 * * *") // 03:00:00 every day
	if err != nil {
		return err
	}
	return schedule.New(s, schedule.Options{}).Run(ctx, job)

Expressions take five fields, or six with a leading seconds field. Descriptors
(@daily, @every 90m) and a CRON_TZ= prefix are accepted.
*/
package schedule

/*
Package batch discovers candidate files and runs the transform engine
over them, sequentially or across a bounded worker pool.

🎯 Purpose:
- Expands explicit files and directory roots into tasks
- Applies the extension allow-list, blacklist globs, and .gitignore
- Skips files whose counterpart already exists on disk
- Gates destructive recursive in-place runs behind a confirmation

🔄 Flow:
1. Discover tasks plus outcomes already decided during the walk
2. Confirm (when in-place + recursive and not forced)
3. Fan out over the engine, aggregating outcomes in the reporter
4. Rename translated directories deepest-first

⚡ Concurrency:
- Workers share only the read-only rule set and converter
- The status.Reporter is the single synchronized sink
- Fail-fast cancels the remaining queue unless keep-going is set
*/
package batch

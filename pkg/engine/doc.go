/*
Package engine implements the per-file transform state machine.

	+------------+     +------------+     +--------------+
	| Discovered | --> | Classified | --> | Transforming |
	+------------+     +------------+     +------+-------+
	                         |                   |
	                         v                   v
	                    +---------+     +---------+---------+
	                    | Skipped |     | Written | Failed  |
	                    +---------+     +---------+---------+

🎯 Purpose:
- Classifies each file as plain text or character card
- Applies the direction-dependent two-stage transform
- Lands output through a temp file and an atomic rename

⚡ Key Responsibilities:
- Skip decisions (no source-script content, no metadata)
- Self-overwrite detection before any write begins
- Optional .bak backup of a distinct existing destination
- Folding every per-file error into a TransformOutcome

🤝 Collaborators:
- dict: the compiled rule set
- variant: bulk conversion through the external converter
- pathname: output name derivation
- card: PNG metadata extraction and embedding
*/
package engine

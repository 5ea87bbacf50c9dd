// Package symtab implements the per-unit symbol table both front ends bind
// labels, constants and static storage into, and the patcher reads from.
//
// A Table lives for one compilation unit: front ends populate it during
// declaration and code generation, the patcher only reads it, and it is
// dropped when the unit completes.
package symtab

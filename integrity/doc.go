// Package integrity inspects numeric inputs before they reach analysis code.
//
// [Validate] flags arrays that are empty, mostly NaN, contain infinities,
// have zero variance or are all zero. Issues make a [Report] invalid;
// warnings do not. [Bounds] checks scalar measurements against configured
// expected ranges.
package integrity

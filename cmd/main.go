// glide renders a constant-velocity relative pointer drift while an arm button
// and a fire button are both held.
package main

func main() {
	Execute()
}
